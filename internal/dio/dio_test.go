package dio

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/CJJ1008/speed/internal/buffer"
	"github.com/CJJ1008/speed/internal/checksum"
)

// rejectDirect simulates a platform where every o_direct open fails
func rejectDirect(t *testing.T) {
	t.Helper()
	prev := directOpenFile
	directOpenFile = func(string, int, os.FileMode) (*os.File, error) {
		return nil, syscall.EINVAL
	}
	t.Cleanup(func() { directOpenFile = prev })
}

// acceptDirect simulates a platform where o_direct opens always
// succeed, by satisfying them with a plain buffered open. the channel
// then believes it achieved direct mode, which is exactly what the
// alignment policy tests need.
func acceptDirect(t *testing.T) {
	t.Helper()
	prev := directOpenFile
	directOpenFile = os.OpenFile
	t.Cleanup(func() { directOpenFile = prev })
}

func TestAlignDown(t *testing.T) {
	cases := []struct {
		n, align, want int64
	}{
		{0, 4096, 0},
		{1, 4096, 0},
		{4095, 4096, 0},
		{4096, 4096, 4096},
		{4097, 4096, 4096},
		{8192, 4096, 8192},
		{10000, 4096, 8192},
	}

	for _, c := range cases {
		if got := AlignDown(c.n, c.align); got != c.want {
			t.Errorf("AlignDown(%d, %d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}

// TestOpenFallback verifies that a rejected direct open silently
// degrades to buffered mode when direct mode is not mandatory
func TestOpenFallback(t *testing.T) {
	rejectDirect(t)
	path := filepath.Join(t.TempDir(), "fallback.bin")

	ch, err := OpenWrite(path, true, false)
	if err != nil {
		t.Fatalf("OpenWrite with fallback returned error: %v", err)
	}
	defer ch.Close()

	if ch.Direct() {
		t.Error("channel reports direct mode after rejected o_direct open")
	}
}

// TestOpenMandatoryDirect verifies that a rejected direct open fails
// with ErrDirectUnavailable when direct mode is mandatory
func TestOpenMandatoryDirect(t *testing.T) {
	rejectDirect(t)
	path := filepath.Join(t.TempDir(), "mandatory.bin")

	_, err := OpenWrite(path, true, true)
	if !errors.Is(err, ErrDirectUnavailable) {
		t.Fatalf("OpenWrite error = %v, want ErrDirectUnavailable", err)
	}

	// no file may be left behind by the failed open attempt
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("failed mandatory open left a file behind")
	}
}

// TestWriteSequentialBuffered verifies an exact-size buffered pass
func TestWriteSequentialBuffered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffered.bin")

	ch, err := OpenWrite(path, false, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	buf, err := buffer.Alloc(2 * buffer.Alignment)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	total := int64(8 * buffer.Alignment)
	written, err := ch.WriteSequential(buf, total, int64(buf.Cap()), nil)
	if err != nil {
		t.Fatalf("WriteSequential returned error: %v", err)
	}
	if written != total {
		t.Errorf("written = %d, want %d", written, total)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != total {
		t.Errorf("file size = %d, want %d", info.Size(), total)
	}
}

// TestWriteSequentialDropsUnalignedTail verifies byte-count truth: a
// direct-mode write of a total that is not a multiple of the alignment
// unit transfers exactly the aligned-down count
func TestWriteSequentialDropsUnalignedTail(t *testing.T) {
	acceptDirect(t)
	path := filepath.Join(t.TempDir(), "tail.bin")

	ch, err := OpenWrite(path, true, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()
	if !ch.Direct() {
		t.Fatal("test setup: channel should believe it is direct")
	}

	buf, err := buffer.Alloc(buffer.Alignment)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	// request three alignment units plus a sub-alignment tail
	total := int64(3*buffer.Alignment + 100)
	written, err := ch.WriteSequential(buf, total, int64(buf.Cap()), nil)
	if err != nil {
		t.Fatalf("WriteSequential returned error: %v", err)
	}

	want := AlignDown(total, buffer.Alignment)
	if written != want {
		t.Errorf("written = %d, want aligned-down %d", written, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}
}

// TestWriteSequentialSubAlignmentTotal verifies that a direct total
// smaller than one alignment unit transfers nothing at all
func TestWriteSequentialSubAlignmentTotal(t *testing.T) {
	acceptDirect(t)
	path := filepath.Join(t.TempDir(), "tiny.bin")

	ch, err := OpenWrite(path, true, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	buf, err := buffer.Alloc(buffer.Alignment)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	written, err := ch.WriteSequential(buf, 100, int64(buf.Cap()), nil)
	if err != nil {
		t.Fatalf("WriteSequential returned error: %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}

// TestReadSequentialShortFile verifies that a zero-byte read terminates
// the pass and the truthful byte count is returned
func TestReadSequentialShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	fileSize := int64(2 * buffer.Alignment)
	if err := os.WriteFile(path, make([]byte, fileSize), 0644); err != nil {
		t.Fatal(err)
	}

	ch, err := OpenRead(path, false, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	buf, err := buffer.Alloc(buffer.Alignment)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	// ask for twice what the file holds
	read, err := ch.ReadSequential(buf, 2*fileSize, int64(buf.Cap()), checksum.New())
	if err != nil {
		t.Fatalf("ReadSequential returned error: %v", err)
	}
	if read != fileSize {
		t.Errorf("read = %d, want %d", read, fileSize)
	}
}

// TestReadSequentialChecksum verifies the folded checksum matches a
// second pass over the same data
func TestReadSequentialChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sum.bin")

	// deterministic content
	content := make([]byte, 4*buffer.Alignment)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	readOnce := func() uint32 {
		ch, err := OpenRead(path, false, false)
		if err != nil {
			t.Fatal(err)
		}
		defer ch.Close()

		buf, err := buffer.Alloc(buffer.Alignment)
		if err != nil {
			t.Fatal(err)
		}
		defer buf.Release()

		sum := checksum.New()
		read, err := ch.ReadSequential(buf, int64(len(content)), int64(buf.Cap()), sum)
		if err != nil {
			t.Fatal(err)
		}
		if read != int64(len(content)) {
			t.Fatalf("read = %d, want %d", read, len(content))
		}
		return sum.Sum32()
	}

	first := readOnce()
	second := readOnce()
	if first != second {
		t.Errorf("checksums differ across identical passes: %d vs %d", first, second)
	}
	if first == 1 {
		t.Error("checksum never advanced past the seed")
	}
}

// TestChunkValidation verifies chunk sizes that cannot fit the buffer
// are rejected before any io
func TestChunkValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunk.bin")

	ch, err := OpenWrite(path, false, false)
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	buf, err := buffer.Alloc(buffer.Alignment)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	if _, err := ch.WriteSequential(buf, buffer.Alignment, int64(buf.Cap())+1, nil); err == nil {
		t.Error("oversized chunk should have been rejected")
	}
	if _, err := ch.WriteSequential(buf, buffer.Alignment, 0, nil); err == nil {
		t.Error("zero chunk should have been rejected")
	}
}

// TestCloseIdempotent verifies Close is safe on every exit path
func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.bin")

	ch, err := OpenWrite(path, false, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}
