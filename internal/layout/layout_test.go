package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CJJ1008/speed/internal/buffer"
)

// TestPrepareReadFile verifies the file comes out at exactly the
// requested size with non-hole content at head and tail
func TestPrepareReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.bin")
	size := int64(16 * buffer.Alignment)

	if err := PrepareReadFile(path, size); err != nil {
		t.Fatalf("PrepareReadFile returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != size {
		t.Errorf("file size = %d, want %d", info.Size(), size)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	zero := make([]byte, buffer.Alignment)
	if string(data[:buffer.Alignment]) == string(zero) {
		t.Error("head block is all zeroes, perturbation write missing")
	}
	if string(data[size-buffer.Alignment:]) == string(zero) {
		t.Error("tail block is all zeroes, perturbation write missing")
	}
}

// TestPrepareReadFileReplacesStale verifies an existing file of the
// wrong size is replaced, not reused
func TestPrepareReadFileReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.bin")
	if err := os.WriteFile(path, make([]byte, 123), 0644); err != nil {
		t.Fatal(err)
	}

	size := int64(4 * buffer.Alignment)
	if err := PrepareReadFile(path, size); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != size {
		t.Errorf("file size = %d, want %d", info.Size(), size)
	}
}

// TestPrepareReadFileRejectsZero verifies zero-size layouts fail fast
func TestPrepareReadFileRejectsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.bin")
	if err := PrepareReadFile(path, 0); err == nil {
		t.Fatal("zero size should have been rejected")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("rejected layout still created a file")
	}
}

// TestPrepareStreamedFiles verifies every path is fully written
func TestPrepareStreamedFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "part0.bin"),
		filepath.Join(dir, "part1.bin"),
	}
	size := int64(8 * buffer.Alignment)

	allDirect, err := PrepareStreamedFiles(paths, size, int64(4*buffer.Alignment), false, false)
	if err != nil {
		t.Fatalf("PrepareStreamedFiles returned error: %v", err)
	}
	if allDirect {
		t.Error("allDirect = true for buffered preparation")
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing prepared file %s: %v", p, err)
		}
		if info.Size() != size {
			t.Errorf("%s size = %d, want %d", p, info.Size(), size)
		}
	}
}

// TestRemoveFiles verifies cleanup tolerates missing files
func TestRemoveFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.bin")
	if err := os.WriteFile(present, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	RemoveFiles([]string{present, filepath.Join(dir, "absent.bin")})

	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Error("present file was not removed")
	}
}
