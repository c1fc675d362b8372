package codec

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// MemoryCellSize is the encoded width of one memory record
const MemoryCellSize = 8 + core.FeltBytes

// MemoryCell is one occupied address of the relocated memory
type MemoryCell struct {
	Address uint64
	Value   core.Felt
}

// MemoryWriter streams occupied memory cells in ascending address order
type MemoryWriter struct {
	cw      countingWriter
	buf     [MemoryCellSize]byte
	cells   int
	last    uint64
	started bool
}

// NewMemoryWriter creates a memory writer on w
func NewMemoryWriter(w io.Writer) *MemoryWriter {
	return &MemoryWriter{cw: countingWriter{w: w}}
}

// WriteCell encodes one cell. Addresses must be strictly ascending.
func (mw *MemoryWriter) WriteCell(addr uint64, value core.Felt) error {
	if mw.started && addr <= mw.last {
		return core.NewError(core.KindInvalidArgument, "memory",
			"address %d written after %d", addr, mw.last)
	}
	binary.LittleEndian.PutUint64(mw.buf[0:8], addr)
	le := value.LittleEndianBytes()
	copy(mw.buf[8:], le[:])
	if err := mw.cw.write(mw.buf[:], "memory"); err != nil {
		return err
	}
	mw.last, mw.started = addr, true
	mw.cells++
	return nil
}

// BytesWritten returns the number of bytes written so far
func (mw *MemoryWriter) BytesWritten() uint64 {
	return mw.cw.n
}

// Cells returns the number of cells written so far
func (mw *MemoryWriter) Cells() int {
	return mw.cells
}

// EncodeMemory writes every occupied slot of a dense memory image.
// A nil entry is an unoccupied address and produces no record.
func EncodeMemory(w io.Writer, memory []*core.Felt) error {
	mw := NewMemoryWriter(w)
	for i, v := range memory {
		if v == nil {
			continue
		}
		if err := mw.WriteCell(uint64(i), *v); err != nil {
			return err
		}
	}
	return nil
}

// MemoryReader decodes memory records from an io.Reader
type MemoryReader struct {
	r      io.Reader
	buf    [MemoryCellSize]byte
	offset uint64
}

// NewMemoryReader creates a memory reader on r
func NewMemoryReader(r io.Reader) *MemoryReader {
	return &MemoryReader{r: r}
}

// Next decodes the next cell. It returns io.EOF at a clean end of input.
func (mr *MemoryReader) Next() (MemoryCell, error) {
	if err := readRecord(mr.r, mr.buf[:], mr.offset, "memory"); err != nil {
		return MemoryCell{}, err
	}
	value, err := core.NewFeltFromLittleEndian(mr.buf[8:])
	if err != nil {
		return MemoryCell{}, core.WrapError(core.KindInvalidEncoding, "memory", err,
			"bad value at byte offset %d", mr.offset+8)
	}
	cell := MemoryCell{Address: binary.LittleEndian.Uint64(mr.buf[0:8]), Value: value}
	mr.offset += MemoryCellSize
	return cell, nil
}

// ReadMemory decodes all memory records
func ReadMemory(r io.Reader) ([]MemoryCell, error) {
	mr := NewMemoryReader(r)
	var out []MemoryCell
	for {
		cell, err := mr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cell)
	}
}

// MaxDenseAddress bounds the highest address Dense will materialize
const MaxDenseAddress = 1 << 24

// Dense rebuilds a dense memory image from decoded cells. Addresses above
// MaxDenseAddress are rejected with InvalidEncoding.
func Dense(cells []MemoryCell) ([]*core.Felt, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	var top uint64
	for _, c := range cells {
		if c.Address > MaxDenseAddress {
			return nil, core.NewError(core.KindInvalidEncoding, "memory",
				"address %d exceeds dense limit %d", c.Address, uint64(MaxDenseAddress))
		}
		if c.Address > top {
			top = c.Address
		}
	}
	out := make([]*core.Felt, top+1)
	for i := range cells {
		v := cells[i].Value
		out[cells[i].Address] = &v
	}
	return out, nil
}
