// package dio implements the uncached sequential io channel. a channel
// wraps one open file handle in either direct (o_direct) or buffered
// mode and exposes aligned streaming read and write primitives over a
// caller-owned aligned buffer.
package dio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ncw/directio"

	"github.com/CJJ1008/speed/internal/buffer"
	"github.com/CJJ1008/speed/internal/checksum"
)

// ErrDirectUnavailable indicates that direct io was demanded but the
// platform or filesystem rejected the o_direct open
var ErrDirectUnavailable = errors.New("direct io unavailable")

// directOpenFile performs the o_direct open attempt. it is a variable
// so tests can simulate platforms that reject direct io.
var directOpenFile = directio.OpenFile

// Channel is one open file prepared for a single sequential pass. the
// achieved mode is fixed at open time and never changes afterwards.
type Channel struct {
	file   *os.File
	path   string
	direct bool
}

// OpenWrite opens path for a sequential write pass, removing any
// pre-existing file first. if wantDirect is set the channel tries
// o_direct and silently degrades to buffered io on rejection, unless
// mandatory is also set, in which case it fails with
// ErrDirectUnavailable.
func OpenWrite(path string, wantDirect, mandatory bool) (*Channel, error) {
	// start from a fresh namespace entry so stale data from an earlier
	// run can never satisfy reads
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale file %s: %w", path, err)
	}

	return open(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, wantDirect, mandatory)
}

// OpenRead mirrors OpenWrite for a sequential read pass, without
// truncation
func OpenRead(path string, wantDirect, mandatory bool) (*Channel, error) {
	return open(path, os.O_RDONLY, wantDirect, mandatory)
}

func open(path string, flags int, wantDirect, mandatory bool) (*Channel, error) {
	// attempt the uncached path first
	if wantDirect {
		f, err := directOpenFile(path, flags, 0644)
		if err == nil {
			return &Channel{file: f, path: path, direct: true}, nil
		}
		if mandatory {
			return nil, fmt.Errorf("%w: %s: %v", ErrDirectUnavailable, path, err)
		}
		// non-mandatory: degrade to the page cache path below
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &Channel{file: f, path: path, direct: false}, nil
}

// Direct reports whether the channel achieved o_direct
func (c *Channel) Direct() bool {
	return c.direct
}

// Path returns the file path the channel was opened on
func (c *Channel) Path() string {
	return c.path
}

// Close releases the file handle. safe to call more than once.
func (c *Channel) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", c.path, err)
	}
	return nil
}

// AlignDown rounds n down to the nearest multiple of align. it is the
// trailing-chunk policy for direct transfers: a final chunk that is not
// length-aligned is shortened, and when shortening yields zero the pass
// stops and the sub-alignment tail is dropped entirely. the tail is
// deliberately not completed through a buffered fallback, so direct
// transfers of unaligned totals under-report against the nominal size.
func AlignDown(n, align int64) int64 {
	return n / align * align
}

// WriteSequential writes total bytes from buf in chunks of chunkSize,
// then forces the data to stable storage. the returned count is the
// number of bytes actually handed to the device, which may fall short
// of total when the trailing chunk is dropped for alignment. the fsync
// is part of the call so its cost lands inside the caller's timing
// window. when sum is non-nil the leading sample of every written
// chunk is folded into it, mirroring the read path so a later read of
// the same file with the same chunk size reproduces the checksum.
func (c *Channel) WriteSequential(buf *buffer.Buffer, total, chunkSize int64, sum *checksum.Stream) (int64, error) {
	if err := c.checkChunk(buf, chunkSize); err != nil {
		return 0, err
	}

	data := buf.Bytes()
	var written int64

	for written < total {
		toWrite := chunkSize
		if remaining := total - written; remaining < toWrite {
			toWrite = remaining
		}

		// trailing chunk policy under direct io
		if c.direct && toWrite%buffer.Alignment != 0 {
			toWrite = AlignDown(toWrite, buffer.Alignment)
			if toWrite == 0 {
				break
			}
		}

		n, err := c.file.Write(data[:toWrite])
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write failed at offset %d on %s: %w", written, c.path, err)
		}
		if sum != nil {
			sum.Fold(data[:n])
		}
	}

	// durability flush: the measurement is meaningless if the data is
	// still sitting in volatile caches when the clock stops
	if err := c.file.Sync(); err != nil {
		return written, fmt.Errorf("fsync failed on %s: %w", c.path, err)
	}

	return written, nil
}

// ReadSequential reads total bytes into buf in chunks of chunkSize,
// folding the leading sample of every chunk into sum before the next
// chunk is requested. a zero-byte read ends the loop early, so the
// returned count is the truthful number of bytes consumed.
func (c *Channel) ReadSequential(buf *buffer.Buffer, total, chunkSize int64, sum *checksum.Stream) (int64, error) {
	if err := c.checkChunk(buf, chunkSize); err != nil {
		return 0, err
	}

	data := buf.Bytes()
	var read int64

	for read < total {
		toRead := chunkSize
		if remaining := total - read; remaining < toRead {
			toRead = remaining
		}

		// same trailing chunk policy as the write path
		if c.direct && toRead%buffer.Alignment != 0 {
			toRead = AlignDown(toRead, buffer.Alignment)
			if toRead == 0 {
				break
			}
		}

		n, err := c.file.Read(data[:toRead])
		if n > 0 {
			sum.Fold(data[:n])
			read += int64(n)
		}
		if err == io.EOF || (n == 0 && err == nil) {
			// end of stream, possibly a short file
			break
		}
		if err != nil {
			return read, fmt.Errorf("read failed at offset %d on %s: %w", read, c.path, err)
		}
	}

	return read, nil
}

func (c *Channel) checkChunk(buf *buffer.Buffer, chunkSize int64) error {
	if chunkSize <= 0 || chunkSize > int64(buf.Cap()) {
		return fmt.Errorf("chunk size %d does not fit buffer of %d bytes", chunkSize, buf.Cap())
	}
	return nil
}
