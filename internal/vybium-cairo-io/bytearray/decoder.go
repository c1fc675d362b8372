// Package bytearray decodes Cairo byte arrays from a felt token stream.
//
// A byte array is serialised as
//
//	N, fullWord_0 .. fullWord_{N-1}, pendingWord, pendingWordLen
//
// where every word is a felt whose big-endian bytes are a chunk of the
// UTF-8 text. A word equal to zero carries no text and is padding.
package bytearray

import (
	"strings"
	"unicode/utf8"

	"github.com/holiman/uint256"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// ZeroWordPolicy selects how literal "0" words are treated
type ZeroWordPolicy int

const (
	// SkipZeroWords treats a "0" word as empty padding
	SkipZeroWords ZeroWordPolicy = iota

	// DecodeAllWords decodes every word; a "0" word yields a single NUL byte
	DecodeAllWords
)

// PendingLengthCheck selects whether pendingWordLen is cross-checked
type PendingLengthCheck int

const (
	// IgnorePendingLength parses pendingWordLen and carries it, unchecked
	IgnorePendingLength PendingLengthCheck = iota

	// EnforcePendingLength fails with InvalidEncoding when the decoded pending
	// word is not pendingWordLen bytes long
	EnforcePendingLength
)

// ByteArray is a decoded byte array
type ByteArray struct {
	// Text is the concatenated word text
	Text string

	// FullWords is the declared number of full words
	FullWords int

	// PendingWordLen is the declared byte length of the pending word
	PendingWordLen uint64
}

// Decoder decodes byte arrays off a Cursor
type Decoder struct {
	ZeroWords     ZeroWordPolicy
	PendingLength PendingLengthCheck
}

// NewDecoder creates a decoder that skips zero words and does not enforce
// the pending word length
func NewDecoder() *Decoder {
	return &Decoder{
		ZeroWords:     SkipZeroWords,
		PendingLength: IgnorePendingLength,
	}
}

// WithZeroWords sets the zero word policy
func (d *Decoder) WithZeroWords(policy ZeroWordPolicy) *Decoder {
	d.ZeroWords = policy
	return d
}

// WithPendingLength sets the pending length check
func (d *Decoder) WithPendingLength(check PendingLengthCheck) *Decoder {
	d.PendingLength = check
	return d
}

// DecodeString decodes one byte array and returns only its text
func (d *Decoder) DecodeString(c *Cursor, field string) (string, error) {
	ba, err := d.Decode(c, field)
	if err != nil {
		return "", err
	}
	return ba.Text, nil
}

// Decode consumes one byte array from c. On error the cursor is left where it was.
func (d *Decoder) Decode(c *Cursor, field string) (ByteArray, error) {
	start := c.Index
	ba, err := d.decode(c, field)
	if err != nil {
		c.Index = start
		return ByteArray{}, err
	}
	return ba, nil
}

func (d *Decoder) decode(c *Cursor, field string) (ByteArray, error) {
	n, err := c.NextUint32(field + ".full_word_count")
	if err != nil {
		return ByteArray{}, err
	}
	// words plus pendingWord plus pendingWordLen
	if need := uint64(n) + 2; need > uint64(c.Remaining()) {
		return ByteArray{}, core.NewError(core.KindInvalidOutputFormat, field,
			"byte array declares %d full words but only %d tokens remain", n, c.Remaining())
	}
	fullWords := int(n)

	lenTok, _ := c.Peek(fullWords + 1)
	pendingLen, err := parseUint(lenTok, field+".pending_word_len", c.Index+fullWords+1, 64)
	if err != nil {
		return ByteArray{}, err
	}

	var text strings.Builder
	pendingBytes := 0
	for i := 0; i <= fullWords; i++ {
		tok, _ := c.Next(field)
		if tok == "0" {
			if d.ZeroWords == SkipZeroWords {
				continue
			}
			text.WriteByte(0)
			continue
		}
		word, err := wordBytes(tok)
		if err != nil {
			return ByteArray{}, core.WrapError(core.KindInvalidEncoding, field, err,
				"word %d (%q) is not an unsigned integer", i, tok)
		}
		text.Write(word)
		if i == fullWords {
			pendingBytes = len(word)
		}
	}
	// pendingWordLen, already parsed
	c.Index++

	if d.PendingLength == EnforcePendingLength && uint64(pendingBytes) != pendingLen {
		return ByteArray{}, core.NewError(core.KindInvalidEncoding, field,
			"pending word is %d bytes but declares %d", pendingBytes, pendingLen)
	}

	s := text.String()
	if !utf8.ValidString(s) {
		return ByteArray{}, core.NewError(core.KindInvalidEncoding, field,
			"decoded bytes are not valid UTF-8")
	}

	return ByteArray{
		Text:           s,
		FullWords:      fullWords,
		PendingWordLen: pendingLen,
	}, nil
}

// wordBytes returns the big-endian bytes of a decimal word, i.e. its
// hex expansion left-padded to an even number of digits and hex-decoded.
func wordBytes(tok string) ([]byte, error) {
	if !core.IsDecimal(tok) {
		return nil, core.ErrNotDecimal
	}
	v, err := uint256.FromDecimal(tok)
	if err != nil {
		return nil, err
	}
	if v.IsZero() {
		return []byte{0}, nil
	}
	return v.Bytes(), nil
}
