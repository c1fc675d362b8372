package bytearray

import (
	"strconv"
	"strings"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// Cursor walks an ordered sequence of decimal felt tokens.
//
// Decoders consume tokens from the front with Next; the cursor keeps the
// full token list and an index so a failed decode can be rewound.
type Cursor struct {
	// Tokens are the felt tokens in stream order
	Tokens []string

	// Index is the position of the next unread token
	Index int
}

// NewCursor creates a cursor over tokens
func NewCursor(tokens []string) *Cursor {
	return &Cursor{Tokens: tokens}
}

// CursorFromString splits s on whitespace and creates a cursor over the tokens
func CursorFromString(s string) *Cursor {
	return NewCursor(strings.Fields(s))
}

// Remaining returns the number of unread tokens
func (c *Cursor) Remaining() int {
	return len(c.Tokens) - c.Index
}

// Pos returns the index of the next unread token
func (c *Cursor) Pos() int {
	return c.Index
}

// Rest returns the unread tokens
func (c *Cursor) Rest() []string {
	return c.Tokens[c.Index:]
}

// Peek returns the token offset positions past the next unread one
func (c *Cursor) Peek(offset int) (string, bool) {
	i := c.Index + offset
	if offset < 0 || i >= len(c.Tokens) {
		return "", false
	}
	return c.Tokens[i], true
}

// Next consumes one token. field names the value being decoded and is
// reported if the stream is exhausted.
func (c *Cursor) Next(field string) (string, error) {
	if c.Index >= len(c.Tokens) {
		return "", core.NewError(core.KindInvalidOutputFormat, field,
			"unexpected end of output stream after %d tokens", len(c.Tokens))
	}
	tok := c.Tokens[c.Index]
	c.Index++
	return tok, nil
}

// NextUint64 consumes one token and parses it as a decimal uint64
func (c *Cursor) NextUint64(field string) (uint64, error) {
	return c.nextUint(field, 64)
}

// NextUint32 consumes one token and parses it as a decimal uint32
func (c *Cursor) NextUint32(field string) (uint32, error) {
	v, err := c.nextUint(field, 32)
	return uint32(v), err
}

// NextLiteral consumes one token and returns its characters as bytes,
// without numeric interpretation
func (c *Cursor) NextLiteral(field string) ([]byte, error) {
	tok, err := c.Next(field)
	if err != nil {
		return nil, err
	}
	return []byte(tok), nil
}

// NextFelt consumes one token and parses it as a felt
func (c *Cursor) NextFelt(field string) (core.Felt, error) {
	tok, err := c.Next(field)
	if err != nil {
		return core.Felt{}, err
	}
	f, err := core.ParseFelt(tok)
	if err != nil {
		return core.Felt{}, core.WrapError(core.KindInvalidOutputFormat, field, err,
			"token %d is not a felt", c.Index-1)
	}
	return f, nil
}

func (c *Cursor) nextUint(field string, bits int) (uint64, error) {
	tok, err := c.Next(field)
	if err != nil {
		return 0, err
	}
	return parseUint(tok, field, c.Index-1, bits)
}

func parseUint(tok, field string, index, bits int) (uint64, error) {
	if !core.IsDecimal(tok) {
		return 0, core.NewError(core.KindInvalidOutputFormat, field,
			"token %d (%q) is not a decimal integer", index, tok)
	}
	v, err := strconv.ParseUint(tok, 10, bits)
	if err != nil {
		return 0, core.WrapError(core.KindInvalidOutputFormat, field, err,
			"token %d (%q) does not fit in %d bits", index, tok, bits)
	}
	return v, nil
}
