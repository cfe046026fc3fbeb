// package layout prepares the on-disk test files the read passes
// consume. single-device reads get a fast preallocated file; the
// multi-device read test streams full files through the write probes
// instead, because aggregated read bandwidth is only meaningful over
// data that was genuinely persisted.
package layout

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/CJJ1008/speed/internal/buffer"
	"github.com/CJJ1008/speed/internal/probe"
)

// PrepareReadFile lays out a test file of exactly size bytes for a
// read pass. the file is preallocated rather than streamed, with small
// random writes at the head and tail so the filesystem cannot serve
// the whole file out of an unwritten hole, then fsynced.
func PrepareReadFile(path string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("test file size must be positive, got %d", size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	// start from scratch so a stale file of the wrong size never leaks
	// into the measurement
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale file %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create test file %s: %w", path, err)
	}
	defer f.Close()

	if err := preallocate(f, size); err != nil {
		return fmt.Errorf("failed to preallocate %s: %w", path, err)
	}

	// perturbation writes, aligned in offset and length
	block := make([]byte, buffer.Alignment)
	if _, err := rand.Read(block); err != nil {
		return fmt.Errorf("failed to generate random data: %w", err)
	}
	if _, err := f.WriteAt(block, 0); err != nil {
		return fmt.Errorf("failed to write head block of %s: %w", path, err)
	}
	if size >= 2*buffer.Alignment {
		if _, err := f.WriteAt(block, size-buffer.Alignment); err != nil {
			return fmt.Errorf("failed to write tail block of %s: %w", path, err)
		}
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync test file %s: %w", path, err)
	}

	return nil
}

// PrepareStreamedFiles writes one fully materialized test file per
// path concurrently, size bytes each, and reports whether every
// stream achieved direct mode. preparation is untimed, so a failure
// on any path aborts the whole batch.
func PrepareStreamedFiles(paths []string, size, chunkSize int64, wantDirect, mandatory bool) (bool, error) {
	direct := make([]bool, len(paths))

	g := new(errgroup.Group)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := probe.RunWrite(path, size, chunkSize, wantDirect, mandatory)
			direct[i] = res.Direct
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("failed to prepare test files: %w", err)
	}

	all := true
	for _, d := range direct {
		all = all && d
	}
	return all, nil
}

// RemoveFiles deletes test files best effort, for cleanup paths where
// the run is already over
func RemoveFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
