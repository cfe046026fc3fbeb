// Package config holds the explicit benchmark configuration passed by
// value into the runners. There is deliberately no package-level
// mutable state: every knob travels inside a Config.
package config

import (
	"errors"
	"fmt"

	"github.com/CJJ1008/speed/internal/buffer"
	"github.com/CJJ1008/speed/internal/dio"
)

// ErrInvalid marks a configuration rejected before any io is attempted
var ErrInvalid = errors.New("invalid configuration")

// Config holds all parameters for one benchmark run
type Config struct {
	Paths         []string // one target file path per device
	MinBytes      int64    // smallest total transfer size in the sweep
	MaxBytes      int64    // largest total transfer size in the sweep
	ChunkBytes    int64    // size of each io operation in bytes
	Rounds        int      // repetitions per size step, averaged
	WantDirect    bool     // request o_direct
	RequireDirect bool     // fail instead of falling back to buffered io
	DropCaches    bool     // ask the os to drop the page cache before read rounds
	KeepFiles     bool     // keep test files after the run
	Format        string   // output format (table, json, or flat)
	LogPath       string   // benchmark log file, empty picks a timestamped default
	Debug         bool     // dump raw reports to stderr
}

// New returns a Config with the defaults of the original tool: a
// 256 MiB to 1 GiB doubling sweep, 8 MiB chunks, three rounds, direct
// io requested but not mandatory.
func New() *Config {
	return &Config{
		MinBytes:   256 << 20,
		MaxBytes:   1024 << 20,
		ChunkBytes: 8 << 20,
		Rounds:     3,
		WantDirect: true,
		Format:     "table",
	}
}

// Validate rejects configurations that could never run a clean pass.
// It must be called before any file is touched.
func (c *Config) Validate() error {
	if len(c.Paths) == 0 {
		return fmt.Errorf("%w: no target paths", ErrInvalid)
	}
	if c.ChunkBytes <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalid, c.ChunkBytes)
	}
	// the chunk is offered verbatim to the device under direct io, so
	// it must itself be aligned rather than silently rounded
	if c.ChunkBytes%buffer.Alignment != 0 {
		return fmt.Errorf("%w: chunk size %d is not a multiple of %d", ErrInvalid, c.ChunkBytes, buffer.Alignment)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalid, c.Rounds)
	}
	if c.MinBytes <= 0 {
		return fmt.Errorf("%w: minimum size must be positive, got %d", ErrInvalid, c.MinBytes)
	}
	if c.MaxBytes < c.MinBytes {
		return fmt.Errorf("%w: maximum size %d is below minimum %d", ErrInvalid, c.MaxBytes, c.MinBytes)
	}
	if _, err := c.PerTarget(c.MinBytes); err != nil {
		return err
	}
	return nil
}

// PerTarget splits a total transfer size evenly across the configured
// targets, aligned down per target. A split that rounds to zero is
// rejected so no probe ever starts with nothing to do.
func (c *Config) PerTarget(total int64) (int64, error) {
	n := int64(len(c.Paths))
	if n == 0 {
		return 0, fmt.Errorf("%w: no target paths", ErrInvalid)
	}

	per := dio.AlignDown(total/n, buffer.Alignment)
	if per <= 0 {
		return 0, fmt.Errorf("%w: total size %d splits to zero bytes per target across %d targets", ErrInvalid, total, n)
	}

	return per, nil
}
