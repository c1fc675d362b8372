package args

import (
	"io"
	"os"
	"strings"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// BracketPolicy selects how bracket misuse is handled
type BracketPolicy int

const (
	// StrictBrackets rejects a ']' with no open array, a '[' inside an open
	// array, doubled brackets such as "[[1" or "1]]", and an array left open
	// at end of input with UnbalancedBrackets.
	StrictBrackets BracketPolicy = iota

	// LenientBrackets reproduces the historical runner: an unterminated array
	// is closed at end of input, and a stray bracket is parsed as a felt
	// (and so fails with InvalidArgument).
	LenientBrackets
)

const (
	openBracket  = "["
	closeBracket = "]"
)

// Encoder turns argument text into arguments
type Encoder struct {
	Brackets BracketPolicy
}

// NewEncoder creates an encoder with strict bracket handling
func NewEncoder() *Encoder {
	return &Encoder{Brackets: StrictBrackets}
}

// WithBrackets sets the bracket policy
func (e *Encoder) WithBrackets(policy BracketPolicy) *Encoder {
	e.Brackets = policy
	return e
}

// Encode parses text with the default encoder
func Encode(text string) ([]Argument, error) {
	return NewEncoder().Encode(text)
}

// Encode parses text into an ordered argument list
func (e *Encoder) Encode(text string) ([]Argument, error) {
	tokens := tokenize(text)
	result := make([]Argument, 0, len(tokens))

	var current []core.Felt
	open := false

	for i, tok := range tokens {
		switch tok {
		case openBracket:
			if open {
				if e.Brackets == StrictBrackets {
					return nil, core.NewError(core.KindUnbalancedBrackets, "argument",
						"'[' at token %d opens a nested array", i)
				}
				return nil, invalidFelt(tok)
			}
			open = true
			current = current[:0]

		case closeBracket:
			if !open {
				if e.Brackets == StrictBrackets {
					return nil, core.NewError(core.KindUnbalancedBrackets, "argument",
						"']' at token %d has no matching '['", i)
				}
				return nil, invalidFelt(tok)
			}
			result = append(result, NewArray(current...))
			open = false

		default:
			v, err := core.ParseFelt(tok)
			if err != nil {
				// brackets left inside a token after peeling are nested or doubled
				if e.Brackets == StrictBrackets && strings.ContainsAny(tok, "[]") {
					return nil, core.NewError(core.KindUnbalancedBrackets, "argument",
						"token %d (%q) nests or repeats brackets", i, tok)
				}
				return nil, core.WrapError(core.KindInvalidArgument, "argument", err,
					"%q is not a valid felt", tok)
			}
			if open {
				current = append(current, v)
			} else {
				result = append(result, NewScalar(v))
			}
		}
	}

	if open {
		if e.Brackets == StrictBrackets {
			return nil, core.NewError(core.KindUnbalancedBrackets, "argument",
				"array opened before end of input is never closed")
		}
		result = append(result, NewArray(current...))
	}

	return result, nil
}

// EncodeReader reads all of r and encodes it
func (e *Encoder) EncodeReader(r io.Reader) ([]Argument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, "argument", err, "failed to read program inputs")
	}
	return e.Encode(string(data))
}

// EncodeFile reads and encodes a program-inputs file
func (e *Encoder) EncodeFile(path string) ([]Argument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, "argument", err, "failed to read program inputs %s", path)
	}
	return e.Encode(string(data))
}

func invalidFelt(tok string) error {
	return core.NewError(core.KindInvalidArgument, "argument", "%q is not a valid felt", tok)
}

// isASCIISpace matches the ASCII whitespace set: space, tab, LF, FF, CR
func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// tokenize splits text on ASCII whitespace and peels one leading '[' and
// one trailing ']' off each raw token into pseudo-tokens of their own.
func tokenize(text string) []string {
	var tokens []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = splitBrackets(tokens, text[start:end])
		start = -1
	}
	for i, r := range text {
		if isASCIISpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return tokens
}

func splitBrackets(tokens []string, raw string) []string {
	if len(raw) > 0 && raw[0] == '[' {
		tokens = append(tokens, openBracket)
		raw = raw[1:]
	}
	if len(raw) > 0 && raw[len(raw)-1] == ']' {
		if body := raw[:len(raw)-1]; body != "" {
			tokens = append(tokens, body)
		}
		return append(tokens, closeBracket)
	}
	if raw != "" {
		tokens = append(tokens, raw)
	}
	return tokens
}
