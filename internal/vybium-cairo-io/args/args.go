// Package args encodes the textual program-input grammar into zkVM arguments.
//
// The grammar is a list of ASCII-whitespace separated tokens. A token is a
// decimal felt or a flat array of felts delimited by '[' and ']':
//
//	5 [1 2 3] 7   ->  Scalar(5), Array(1, 2, 3), Scalar(7)
//	[5] []        ->  Array(5), Array()
//
// Brackets may touch the numbers they enclose. Arrays do not nest.
package args

import (
	"strings"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// Kind distinguishes scalar from array arguments
type Kind int

const (
	// Scalar is a single felt argument
	Scalar Kind = iota
	// Array is a felt array argument
	Array
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// Argument is one zkVM call argument
type Argument struct {
	Kind Kind

	// Value holds the felt of a Scalar argument
	Value core.Felt

	// Values holds the elements of an Array argument
	Values []core.Felt
}

// NewScalar creates a scalar argument
func NewScalar(v core.Felt) Argument {
	return Argument{Kind: Scalar, Value: v}
}

// NewArray creates an array argument. The elements are copied.
func NewArray(values ...core.Felt) Argument {
	elems := make([]core.Felt, len(values))
	copy(elems, values)
	return Argument{Kind: Array, Values: elems}
}

// Len returns the number of felts carried by the argument
func (a Argument) Len() int {
	if a.Kind == Array {
		return len(a.Values)
	}
	return 1
}

// String renders the argument in the input grammar
func (a Argument) String() string {
	if a.Kind == Scalar {
		return a.Value.String()
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Format renders arguments in the input grammar. Encode(Format(a)) == a.
func Format(arguments []Argument) string {
	parts := make([]string, len(arguments))
	for i, a := range arguments {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
