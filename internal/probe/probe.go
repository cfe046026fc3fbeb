// package probe drives one aligned buffer and one channel through a
// complete sequential pass and measures only the io portion. a write
// pass fills the buffer, negotiates the channel mode, then times the
// streaming write plus its durability flush. a read pass negotiates
// the mode, then times the streaming read including the checksum
// folds. buffer allocation, random fill and open always sit outside
// the timed window.
package probe

import (
	"fmt"
	"time"

	"github.com/CJJ1008/speed/internal/buffer"
	"github.com/CJJ1008/speed/internal/checksum"
	"github.com/CJJ1008/speed/internal/dio"
)

// Result is the immutable outcome of one sequential pass
type Result struct {
	// io window only: first chunk transfer through the durability
	// flush (writes) or the final checksum fold (reads)
	Elapsed time.Duration

	// bytes actually moved, reported truthfully even when the
	// trailing unaligned remainder was dropped
	Bytes int64

	// whether the channel achieved o_direct
	Direct bool

	// sampled streaming checksum over the pass
	Checksum uint32

	// fewer bytes moved than requested
	Short bool
}

// RunWrite performs a fill-then-write pass of size bytes against path.
// every failure path still yields a Result so callers can account for
// partial transfers.
func RunWrite(path string, size, chunkSize int64, wantDirect, mandatory bool) (Result, error) {
	// the buffer holds one chunk and is reused for every write
	buf, err := buffer.Alloc(int(chunkSize))
	if err != nil {
		return Result{}, err
	}
	defer buf.Release()

	// random content defeats device-side compression; generated once,
	// before the clock starts
	if err := buf.FillRandom(buf.Cap()); err != nil {
		return Result{}, err
	}

	ch, err := dio.OpenWrite(path, wantDirect, mandatory)
	if err != nil {
		return Result{}, err
	}
	defer ch.Close()

	sum := checksum.New()

	start := time.Now()
	written, err := ch.WriteSequential(buf, size, chunkSize, sum)
	elapsed := time.Since(start)

	res := Result{
		Elapsed:  elapsed,
		Bytes:    written,
		Direct:   ch.Direct(),
		Checksum: sum.Sum32(),
		Short:    written < size,
	}
	if err != nil {
		return res, fmt.Errorf("write pass on %s: %w", path, err)
	}

	return res, nil
}

// RunRead performs a read-then-verify pass of size bytes from path
func RunRead(path string, size, chunkSize int64, wantDirect, mandatory bool) (Result, error) {
	buf, err := buffer.Alloc(int(chunkSize))
	if err != nil {
		return Result{}, err
	}
	defer buf.Release()

	ch, err := dio.OpenRead(path, wantDirect, mandatory)
	if err != nil {
		return Result{}, err
	}
	defer ch.Close()

	sum := checksum.New()

	start := time.Now()
	read, err := ch.ReadSequential(buf, size, chunkSize, sum)
	elapsed := time.Since(start)

	res := Result{
		Elapsed:  elapsed,
		Bytes:    read,
		Direct:   ch.Direct(),
		Checksum: sum.Sum32(),
		Short:    read < size,
	}
	if err != nil {
		return res, fmt.Errorf("read pass on %s: %w", path, err)
	}

	return res, nil
}
