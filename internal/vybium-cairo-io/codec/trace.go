// Package codec encodes the execution trace and relocated memory into the
// fixed-width little-endian binary layouts consumed by provers, and decodes
// them back for inspection.
//
// Trace:  AP ‖ FP ‖ PC per entry, each a u64, 24 bytes, no header.
// Memory: addr ‖ felt per occupied cell, u64 then 32 bytes, no header.
package codec

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// TraceEntrySize is the encoded width of one trace entry
const TraceEntrySize = 24

// TraceEntry is the register state of one executed step
type TraceEntry struct {
	PC uint64 `json:"pc"`
	FP uint64 `json:"fp"`
	AP uint64 `json:"ap"`
}

// TraceWriter streams trace entries to an io.Writer
type TraceWriter struct {
	cw      countingWriter
	buf     [TraceEntrySize]byte
	entries int
}

// NewTraceWriter creates a trace writer on w
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{cw: countingWriter{w: w}}
}

// Write encodes one entry
func (tw *TraceWriter) Write(e TraceEntry) error {
	binary.LittleEndian.PutUint64(tw.buf[0:8], e.AP)
	binary.LittleEndian.PutUint64(tw.buf[8:16], e.FP)
	binary.LittleEndian.PutUint64(tw.buf[16:24], e.PC)
	if err := tw.cw.write(tw.buf[:], "trace"); err != nil {
		return err
	}
	tw.entries++
	return nil
}

// BytesWritten returns the number of bytes written so far
func (tw *TraceWriter) BytesWritten() uint64 {
	return tw.cw.n
}

// Entries returns the number of entries written so far
func (tw *TraceWriter) Entries() int {
	return tw.entries
}

// EncodeTrace writes all entries in order. An empty trace writes nothing.
func EncodeTrace(w io.Writer, entries []TraceEntry) error {
	tw := NewTraceWriter(w)
	for _, e := range entries {
		if err := tw.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// TraceReader decodes trace entries from an io.Reader
type TraceReader struct {
	r      io.Reader
	buf    [TraceEntrySize]byte
	offset uint64
}

// NewTraceReader creates a trace reader on r
func NewTraceReader(r io.Reader) *TraceReader {
	return &TraceReader{r: r}
}

// Next decodes the next entry. It returns io.EOF at a clean end of input.
func (tr *TraceReader) Next() (TraceEntry, error) {
	if err := readRecord(tr.r, tr.buf[:], tr.offset, "trace"); err != nil {
		return TraceEntry{}, err
	}
	tr.offset += TraceEntrySize
	return TraceEntry{
		AP: binary.LittleEndian.Uint64(tr.buf[0:8]),
		FP: binary.LittleEndian.Uint64(tr.buf[8:16]),
		PC: binary.LittleEndian.Uint64(tr.buf[16:24]),
	}, nil
}

// ReadTrace decodes a whole trace
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	tr := NewTraceReader(r)
	var out []TraceEntry
	for {
		e, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// countingWriter tracks the offset so failures can report where they happened
type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) write(p []byte, field string) error {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	if err != nil {
		return core.WrapError(core.KindIOFailure, field, err, "write failed at byte offset %d", cw.n)
	}
	return nil
}

// readRecord fills buf from r. A clean end of input yields io.EOF; a short
// record is an encoding error.
func readRecord(r io.Reader, buf []byte, offset uint64, field string) error {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return core.NewError(core.KindInvalidEncoding, field,
			"truncated record at byte offset %d: %d of %d bytes", offset, n, len(buf))
	default:
		return core.WrapError(core.KindIOFailure, field, err, "read failed at byte offset %d", offset+uint64(n))
	}
}
