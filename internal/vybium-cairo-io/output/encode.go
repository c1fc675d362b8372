package output

import (
	"io"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cborEncMode uses canonical encoding so equal records encode to equal bytes
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEncMode = em
}

// Format selects the serialised form of an output record
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// MarshalJSON encodes v as JSON
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, "", err, "failed to encode record as JSON")
	}
	return data, nil
}

// MarshalCBOR encodes v as canonical CBOR
func MarshalCBOR(v interface{}) ([]byte, error) {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, "", err, "failed to encode record as CBOR")
	}
	return data, nil
}

// Marshal encodes v in the given format
func Marshal(v interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatCBOR:
		return MarshalCBOR(v)
	case FormatJSON, "":
		return MarshalJSON(v)
	default:
		return nil, core.NewError(core.KindInvalidConfig, "format", "unknown output format %q", format)
	}
}

// Write encodes v in the given format to w
func Write(w io.Writer, v interface{}, format Format) error {
	data, err := Marshal(v, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return core.WrapError(core.KindIOFailure, "", err, "failed to write record")
	}
	return nil
}

// UnmarshalJSON decodes a JSON record
func UnmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// UnmarshalCBOR decodes a CBOR record
func UnmarshalCBOR(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
