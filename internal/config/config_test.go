package config

import (
	"errors"
	"testing"

	"github.com/CJJ1008/speed/internal/buffer"
)

func valid() *Config {
	c := New()
	c.Paths = []string{"/mnt/nvme0/test.bin"}
	return c
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := valid().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestValidateRejectsUnalignedChunk(t *testing.T) {
	c := valid()
	c.ChunkBytes = buffer.Alignment + 512

	err := c.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("unaligned chunk: err = %v, want ErrInvalid", err)
	}
}

func TestValidateRejectsZeroChunk(t *testing.T) {
	c := valid()
	c.ChunkBytes = 0

	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero chunk: err = %v, want ErrInvalid", err)
	}
}

func TestValidateRejectsNoPaths(t *testing.T) {
	c := New()

	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("no paths: err = %v, want ErrInvalid", err)
	}
}

func TestValidateRejectsBadRange(t *testing.T) {
	c := valid()
	c.MinBytes = 2 << 30
	c.MaxBytes = 1 << 30

	if err := c.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("inverted range: err = %v, want ErrInvalid", err)
	}
}

// TestPerTargetSplit verifies the even aligned-down split across targets
func TestPerTargetSplit(t *testing.T) {
	c := valid()
	c.Paths = []string{"a", "b", "c"}

	per, err := c.PerTarget(1 << 30)
	if err != nil {
		t.Fatal(err)
	}
	if per%buffer.Alignment != 0 {
		t.Errorf("per-target size %d not aligned", per)
	}
	if per*3 > 1<<30 {
		t.Errorf("split %d*3 exceeds the requested total", per)
	}
}

// TestPerTargetRejectsZeroSplit verifies that a total too small to give
// every target at least one aligned unit is rejected before any io
func TestPerTargetRejectsZeroSplit(t *testing.T) {
	c := valid()
	c.Paths = []string{"a", "b", "c"}

	if _, err := c.PerTarget(2 * buffer.Alignment); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero split: err = %v, want ErrInvalid", err)
	}
}
