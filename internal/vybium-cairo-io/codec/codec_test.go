package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

func feltPtr(v uint64) *core.Felt {
	f := core.NewFeltFromUint64(v)
	return &f
}

// failingWriter accepts limit bytes then fails
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

// TestEncodeTraceEmpty checks an empty trace encodes to zero bytes and reads back empty
func TestEncodeTraceEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeTrace(&buf, nil))
	assert.Zero(t, buf.Len())

	entries, err := ReadTrace(&buf)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestEncodeTraceLayout checks the AP, FP, PC little-endian record layout
func TestEncodeTraceLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeTrace(&buf, []TraceEntry{{AP: 1, FP: 2, PC: 3}}))
	require.Equal(t, TraceEntrySize, buf.Len())

	raw := buf.Bytes()
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(raw[0:8]))
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(raw[8:16]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(raw[16:24]))
}

// TestTraceRoundTrip checks entries survive the writer and reader unchanged
func TestTraceRoundTrip(t *testing.T) {
	in := []TraceEntry{
		{AP: 1, FP: 2, PC: 3},
		{AP: 100, FP: 100, PC: 7},
		{AP: ^uint64(0), FP: 0, PC: 1 << 40},
	}
	var buf bytes.Buffer
	tw := NewTraceWriter(&buf)
	for _, e := range in {
		require.NoError(t, tw.Write(e))
	}
	assert.Equal(t, uint64(len(in)*TraceEntrySize), tw.BytesWritten())
	assert.Equal(t, len(in), tw.Entries())

	out, err := ReadTrace(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// TestReadTraceTruncated checks a partial trailing record is an encoding error at its offset
func TestReadTraceTruncated(t *testing.T) {
	_, err := ReadTrace(bytes.NewReader(make([]byte, TraceEntrySize+5)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidEncoding), "got %v", err)
	assert.Contains(t, err.Error(), "offset 24")
}

// TestTraceWriterFailure checks a short write reports the failing offset
func TestTraceWriterFailure(t *testing.T) {
	tw := NewTraceWriter(&failingWriter{limit: 30})
	require.NoError(t, tw.Write(TraceEntry{}))
	err := tw.Write(TraceEntry{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIOFailure))
	assert.Contains(t, err.Error(), "offset 30")
	assert.Equal(t, 1, tw.Entries())
}

// TestEncodeMemorySparse checks only occupied addresses are written
func TestEncodeMemorySparse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMemory(&buf, []*core.Felt{feltPtr(10), nil, nil, nil, nil, feltPtr(20)}))
	require.Equal(t, 2*MemoryCellSize, buf.Len())

	raw := buf.Bytes()
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[0:8]))
	assert.Equal(t, byte(10), raw[8])
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(raw[40:48]))
	assert.Equal(t, byte(20), raw[48])
}

// TestMemoryRoundTrip checks sparse cells decode and rebuild the dense image
func TestMemoryRoundTrip(t *testing.T) {
	large := core.MustParseFelt("3618502788666131213697322783095070105623107215331596699973092056135872020480")
	mem := []*core.Felt{nil, feltPtr(1), nil, &large, feltPtr(0)}

	var buf bytes.Buffer
	require.NoError(t, EncodeMemory(&buf, mem))

	cells, err := ReadMemory(&buf)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, []uint64{1, 3, 4}, []uint64{cells[0].Address, cells[1].Address, cells[2].Address})
	assert.True(t, cells[1].Value.Equal(large))

	dense, err := Dense(cells)
	require.NoError(t, err)
	require.Len(t, dense, len(mem))
	for i := range mem {
		if mem[i] == nil {
			assert.Nil(t, dense[i], "addr %d", i)
			continue
		}
		require.NotNil(t, dense[i], "addr %d", i)
		assert.True(t, mem[i].Equal(*dense[i]), "addr %d", i)
	}
}

// TestDenseAddressLimit checks out-of-range addresses fail instead of allocating
func TestDenseAddressLimit(t *testing.T) {
	for _, addr := range []uint64{^uint64(0), 1 << 40, MaxDenseAddress + 1} {
		_, err := Dense([]MemoryCell{{Address: 1}, {Address: addr}})
		assert.True(t, errors.Is(err, core.ErrInvalidEncoding), "addr %d: got %v", addr, err)
	}

	dense, err := Dense(nil)
	require.NoError(t, err)
	assert.Nil(t, dense)
}

// TestMemoryWriterAscending checks addresses must strictly increase
func TestMemoryWriterAscending(t *testing.T) {
	mw := NewMemoryWriter(io.Discard)
	require.NoError(t, mw.WriteCell(4, core.NewFeltFromUint64(1)))

	err := mw.WriteCell(4, core.NewFeltFromUint64(2))
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
	err = mw.WriteCell(2, core.NewFeltFromUint64(2))
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	require.NoError(t, mw.WriteCell(9, core.NewFeltFromUint64(3)))
	assert.Equal(t, 2, mw.Cells())
	assert.Equal(t, uint64(2*MemoryCellSize), mw.BytesWritten())
}

// TestReadMemoryErrors checks truncated and non-canonical cells are rejected
func TestReadMemoryErrors(t *testing.T) {
	_, err := ReadMemory(bytes.NewReader(make([]byte, MemoryCellSize-1)))
	assert.True(t, errors.Is(err, core.ErrInvalidEncoding), "got %v", err)

	nonCanonical := make([]byte, MemoryCellSize)
	for i := 8; i < MemoryCellSize; i++ {
		nonCanonical[i] = 0xff
	}
	_, err = ReadMemory(bytes.NewReader(nonCanonical))
	assert.True(t, errors.Is(err, core.ErrInvalidEncoding), "got %v", err)
}

// TestWithFileSink checks the file lands in place with no temporary left over
func TestWithFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.bin")

	err := WithFileSink(path, DefaultTraceBufferSize, func(w io.Writer) error {
		return EncodeTrace(w, []TraceEntry{{AP: 1, FP: 2, PC: 3}})
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, TraceEntrySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

// TestWithFileSinkCleanup checks a failing writer leaves the directory empty
func TestWithFileSinkCleanup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.bin")
	boom := errors.New("boom")

	err := WithFileSink(path, DefaultMemoryBufferSize, func(w io.Writer) error {
		if _, err := w.Write([]byte("partial")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

// TestWithFileSinkMissingDir checks a missing directory is an IO failure
func TestWithFileSinkMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "trace.bin")
	err := WithFileSink(path, 0, func(io.Writer) error { return nil })
	assert.True(t, errors.Is(err, core.ErrIOFailure))
}
