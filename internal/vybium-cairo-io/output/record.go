// Package output decodes the zkVM's serialised return value into a
// versioned output record.
//
// The stream is a bracketed list of decimal felts. It starts with a fixed
// prefix (version, states, origin, caller, tx hash) and ends with a payload
// whose shape depends on the program; payloads are decoded by a caller
// supplied TailDecoder working on the same cursor.
package output

import (
	"fmt"
	"strconv"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/bytearray"
)

// Bytes is a byte vector that serialises to JSON as an array of integers
type Bytes []byte

// MarshalJSON encodes b as a JSON array of numbers
func (b Bytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+4*len(b))
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON decodes a JSON array of numbers
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var values []uint16
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make(Bytes, len(values))
	for i, v := range values {
		if v > 0xff {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Prefix is the payload independent part of an output record
type Prefix struct {
	Version      uint32 `json:"version" cbor:"version"`
	InitialState Bytes  `json:"initial_state" cbor:"initial_state"`
	NextState    Bytes  `json:"next_state" cbor:"next_state"`
	Origin       string `json:"origin" cbor:"origin"`
	Caller       string `json:"caller" cbor:"caller"`
	BlockNumber  uint64 `json:"block_number" cbor:"block_number"`
	BlockTime    uint64 `json:"block_time" cbor:"block_time"`
	TxHash       Bytes  `json:"tx_hash" cbor:"tx_hash"`
}

// Record is a decoded output record with a program specific payload
type Record[P any] struct {
	Prefix
	ProgramOutputs P `json:"program_outputs" cbor:"program_outputs"`
}

// WithBlock returns a copy of the record with block number and time set.
// The zkVM stream does not carry them; the caller fills them in.
func (r *Record[P]) WithBlock(number, time uint64) *Record[P] {
	out := *r
	out.BlockNumber = number
	out.BlockTime = time
	return &out
}

// TransferEvent is the payload of a token transfer program
type TransferEvent struct {
	From   string `json:"from" cbor:"from"`
	To     string `json:"to" cbor:"to"`
	Amount uint64 `json:"amount" cbor:"amount"`
}

// TailDecoder decodes a payload from the cursor left after the prefix
type TailDecoder[P any] func(c *bytearray.Cursor, words *bytearray.Decoder) (P, error)

// DecodeTransfer decodes from, to and amount
func DecodeTransfer(c *bytearray.Cursor, words *bytearray.Decoder) (TransferEvent, error) {
	from, err := words.DecodeString(c, "from")
	if err != nil {
		return TransferEvent{}, err
	}
	to, err := words.DecodeString(c, "to")
	if err != nil {
		return TransferEvent{}, err
	}
	amount, err := c.NextUint64("amount")
	if err != nil {
		return TransferEvent{}, err
	}
	return TransferEvent{From: from, To: to, Amount: amount}, nil
}

// DecodeRaw takes every remaining token as a felt. Used when the payload
// shape is unknown.
func DecodeRaw(c *bytearray.Cursor, _ *bytearray.Decoder) ([]string, error) {
	rest := c.Rest()
	out := make([]string, 0, len(rest))
	for c.Remaining() > 0 {
		f, err := c.NextFelt("program_outputs")
		if err != nil {
			return nil, err
		}
		out = append(out, f.String())
	}
	return out, nil
}
