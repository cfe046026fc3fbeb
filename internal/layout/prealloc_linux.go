//go:build linux

package layout

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size bytes of real extents for f. fallocate is
// much faster than streaming random data and good enough for a read
// target, but some filesystems do not support it, in which case a
// plain truncate sets the length and the perturbation writes keep the
// file from being a pure hole.
func preallocate(f *os.File, size int64) error {
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err == nil {
		return nil
	}
	return f.Truncate(size)
}
