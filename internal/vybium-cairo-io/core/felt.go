package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// FeltBytes is the width of the native little-endian felt encoding
const FeltBytes = fp.Bytes

var (
	// ErrNotDecimal is returned for tokens that are not a plain decimal integer
	ErrNotDecimal = errors.New("not a non-negative decimal integer")
	// ErrFeltOverflow is returned for values not below the field modulus
	ErrFeltOverflow = errors.New("value exceeds the field modulus")
)

// feltModulus is the Stark prime 2^251 + 17*2^192 + 1
var feltModulus = fp.Modulus()

// Felt is an element of the Stark prime field.
// It is a value type; operations never mutate the receiver.
type Felt struct {
	e fp.Element
}

// Modulus returns the field modulus
func Modulus() *big.Int {
	return new(big.Int).Set(feltModulus)
}

// IsDecimal reports whether s is a non-empty run of ASCII digits
func IsDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseFelt parses a decimal string into a felt.
// Values at or above the modulus are rejected rather than reduced.
func ParseFelt(s string) (Felt, error) {
	if !IsDecimal(s) {
		return Felt{}, fmt.Errorf("%q: %w", s, ErrNotDecimal)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Felt{}, fmt.Errorf("%q: %w", s, ErrNotDecimal)
	}
	return NewFeltFromBig(v)
}

// MustParseFelt is like ParseFelt but panics on error. Intended for constants and tests.
func MustParseFelt(s string) Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

// NewFeltFromBig creates a felt from a big.Int in [0, modulus)
func NewFeltFromBig(v *big.Int) (Felt, error) {
	if v.Sign() < 0 {
		return Felt{}, fmt.Errorf("%s: %w", v, ErrNotDecimal)
	}
	if v.Cmp(feltModulus) >= 0 {
		return Felt{}, fmt.Errorf("%s: %w", v, ErrFeltOverflow)
	}
	var f Felt
	f.e.SetBigInt(v)
	return f, nil
}

// NewFeltFromUint64 creates a felt from a uint64
func NewFeltFromUint64(v uint64) Felt {
	var f Felt
	f.e.SetUint64(v)
	return f
}

// NewFeltFromLittleEndian decodes the native FeltBytes-wide little-endian encoding
func NewFeltFromLittleEndian(b []byte) (Felt, error) {
	if len(b) != FeltBytes {
		return Felt{}, fmt.Errorf("felt encoding must be %d bytes, got %d", FeltBytes, len(b))
	}
	var be [FeltBytes]byte
	for i := range b {
		be[FeltBytes-1-i] = b[i]
	}
	var f Felt
	if err := f.e.SetBytesCanonical(be[:]); err != nil {
		return Felt{}, fmt.Errorf("non-canonical felt encoding: %w", err)
	}
	return f, nil
}

// Big returns the value as a big.Int
func (f Felt) Big() *big.Int {
	return f.e.BigInt(new(big.Int))
}

// Uint64 returns the value as a uint64 and whether it fits
func (f Felt) Uint64() (uint64, bool) {
	v := f.Big()
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// LittleEndianBytes returns the native fixed-width little-endian encoding
func (f Felt) LittleEndianBytes() [FeltBytes]byte {
	be := f.e.Bytes()
	var le [FeltBytes]byte
	for i := range be {
		le[FeltBytes-1-i] = be[i]
	}
	return le
}

// IsZero checks if the element is zero
func (f Felt) IsZero() bool {
	return f.e.IsZero()
}

// Equal checks if two felts are equal
func (f Felt) Equal(other Felt) bool {
	return f.e.Equal(&other.e)
}

// String returns the decimal representation
func (f Felt) String() string {
	return f.Big().String()
}

// MarshalText encodes the felt as a decimal string
func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a decimal string
func (f *Felt) UnmarshalText(text []byte) error {
	v, err := ParseFelt(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
