package output

import (
	"strings"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/bytearray"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// Decoder decodes raw zkVM output streams
type Decoder struct {
	// Words decodes the byte array fields
	Words *bytearray.Decoder

	// RejectTrailing fails decoding when tokens remain after the payload
	RejectTrailing bool
}

// NewDecoder creates a decoder with the default byte array policies
func NewDecoder() *Decoder {
	return &Decoder{Words: bytearray.NewDecoder()}
}

// WithWords sets the byte array decoder
func (d *Decoder) WithWords(words *bytearray.Decoder) *Decoder {
	d.Words = words
	return d
}

// WithRejectTrailing sets whether leftover tokens are an error
func (d *Decoder) WithRejectTrailing(reject bool) *Decoder {
	d.RejectTrailing = reject
	return d
}

// Tokenize strips the enclosing brackets off a raw output stream and splits it
func Tokenize(raw string) []string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "[]")
	return strings.Fields(trimmed)
}

// DecodePrefix decodes the fixed prefix and returns the cursor positioned
// at the payload
func (d *Decoder) DecodePrefix(raw string) (*Prefix, *bytearray.Cursor, error) {
	c := bytearray.NewCursor(Tokenize(raw))
	p, err := d.decodePrefix(c)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

func (d *Decoder) decodePrefix(c *bytearray.Cursor) (*Prefix, error) {
	var (
		p   Prefix
		err error
	)
	if p.Version, err = c.NextUint32("version"); err != nil {
		return nil, err
	}
	if p.InitialState, err = c.NextLiteral("initial_state"); err != nil {
		return nil, err
	}
	if p.NextState, err = c.NextLiteral("next_state"); err != nil {
		return nil, err
	}
	if p.Origin, err = d.Words.DecodeString(c, "origin"); err != nil {
		return nil, err
	}
	if p.Caller, err = d.Words.DecodeString(c, "caller"); err != nil {
		return nil, err
	}
	if p.TxHash, err = c.NextLiteral("tx_hash"); err != nil {
		return nil, err
	}
	return &p, nil
}

// Decode decodes a full record: the fixed prefix, then the payload through tail
func Decode[P any](d *Decoder, raw string, tail TailDecoder[P]) (*Record[P], error) {
	prefix, c, err := d.DecodePrefix(raw)
	if err != nil {
		return nil, err
	}
	payload, err := tail(c, d.Words)
	if err != nil {
		return nil, err
	}
	if d.RejectTrailing && c.Remaining() > 0 {
		return nil, core.NewError(core.KindInvalidOutputFormat, "program_outputs",
			"%d unexpected tokens after the payload", c.Remaining())
	}
	return &Record[P]{Prefix: *prefix, ProgramOutputs: payload}, nil
}

// DecodeTransferRecord decodes a record carrying a TransferEvent payload
func (d *Decoder) DecodeTransferRecord(raw string) (*Record[TransferEvent], error) {
	return Decode[TransferEvent](d, raw, DecodeTransfer)
}
