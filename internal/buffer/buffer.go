// package buffer provides the reusable page-aligned memory region that
// backs every direct io transfer. direct io requires both the base
// address and the transfer length to be multiples of the device block
// size, so the region is allocated once per probe and reused for every
// chunk to keep the measured path allocation free.
package buffer

import (
	"crypto/rand"
	"fmt"

	"github.com/ncw/directio"
)

// Alignment is the alignment unit for direct io buffers and transfer
// lengths. 4096 covers every nvme/ssd filesystem we care about.
const Alignment = 4096

// fillChunk bounds how many random bytes are generated per pass so that
// filling a large buffer never needs a second same-size source buffer
const fillChunk = 64 * 1024

// Buffer is a page-aligned byte region with a fixed, aligned capacity.
// it is exclusively owned by the probe that allocated it and must never
// be shared across goroutines.
type Buffer struct {
	// aligned backing memory, nil after Release
	data []byte
}

// Alloc returns a page-aligned buffer of the given capacity. the
// capacity must be a positive multiple of Alignment.
func Alloc(capacity int) (*Buffer, error) {
	// reject capacities that could never satisfy direct io
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer capacity must be positive, got %d", capacity)
	}
	if capacity%Alignment != 0 {
		return nil, fmt.Errorf("buffer capacity %d is not a multiple of %d", capacity, Alignment)
	}

	// directio hands back memory aligned for o_direct
	return &Buffer{data: directio.AlignedBlock(capacity)}, nil
}

// Bytes exposes the aligned backing slice. callers slice it per chunk
// but must not retain it past Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Cap returns the buffer capacity in bytes, zero after Release.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// FillRandom populates the first n bytes with pseudo-random data in
// bounded sub-chunks. the content only needs to defeat compression and
// dedup on the device, not be unpredictable.
func (b *Buffer) FillRandom(n int) error {
	// validate requested length against current capacity
	if n < 0 || n > len(b.data) {
		return fmt.Errorf("fill length %d out of range for buffer of %d bytes", n, len(b.data))
	}

	// fill in fillChunk strides so no second large buffer is needed
	for off := 0; off < n; off += fillChunk {
		end := off + fillChunk
		if end > n {
			end = n
		}
		if _, err := rand.Read(b.data[off:end]); err != nil {
			return fmt.Errorf("failed to generate random data: %w", err)
		}
	}

	return nil
}

// Release drops the backing memory. it is safe to call more than once
// and on every exit path.
func (b *Buffer) Release() {
	b.data = nil
}
