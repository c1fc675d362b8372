package vybiumcairoio

import (
	"io"

	"go.uber.org/zap"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/bytearray"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/runner"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/utils"
)

// ParseFelt parses a decimal felt below the field modulus
func ParseFelt(s string) (Felt, error) {
	f, err := core.ParseFelt(s)
	if err != nil {
		return Felt{}, &IOError{Code: ErrInvalidArgument, Message: "invalid felt", Cause: err}
	}
	return f, nil
}

// EncodeArguments encodes argument text with strict bracket checking
func EncodeArguments(text string) ([]Argument, error) {
	out, err := args.Encode(text)
	return out, wrapError(err, "failed to encode arguments")
}

// EncodeArgumentsFile encodes a program inputs file with strict bracket checking
func EncodeArgumentsFile(path string) ([]Argument, error) {
	out, err := args.NewEncoder().EncodeFile(path)
	return out, wrapError(err, "failed to encode arguments")
}

// FormatArguments renders arguments back into the argument grammar
func FormatArguments(arguments []Argument) string {
	return args.Format(arguments)
}

// DecodeByteArray decodes one Cairo byte array from whitespace separated felts
func DecodeByteArray(text string) (string, error) {
	s, err := bytearray.NewDecoder().DecodeString(bytearray.CursorFromString(text), "byte_array")
	return s, wrapError(err, "failed to decode byte array")
}

// DecodeTransferOutput decodes an output stream carrying a TransferEvent
func DecodeTransferOutput(raw string) (*TransferRecord, error) {
	rec, err := output.NewDecoder().DecodeTransferRecord(raw)
	if err != nil {
		return nil, wrapError(err, "failed to decode output")
	}
	return rec, nil
}

// EncodeTrace writes the binary trace artifact
func EncodeTrace(w io.Writer, entries []TraceEntry) error {
	return wrapError(codec.EncodeTrace(w, entries), "failed to encode trace")
}

// EncodeMemory writes the binary memory artifact; nil entries are unoccupied
func EncodeMemory(w io.Writer, memory []*Felt) error {
	return wrapError(codec.EncodeMemory(w, memory), "failed to encode memory")
}

// ReadTrace decodes a binary trace artifact
func ReadTrace(r io.Reader) ([]TraceEntry, error) {
	out, err := codec.ReadTrace(r)
	return out, wrapError(err, "failed to read trace")
}

// ReadMemory decodes a binary memory artifact
func ReadMemory(r io.Reader) ([]MemoryCell, error) {
	out, err := codec.ReadMemory(r)
	return out, wrapError(err, "failed to read memory")
}

// DefaultConfig returns the default run configuration
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// LoadConfig reads a TOML run configuration
func LoadConfig(path string) (*Config, error) {
	cfg, err := utils.LoadConfig(path)
	if err != nil {
		return nil, wrapError(err, "failed to load config")
	}
	return cfg, nil
}

// NewCommandExecutor creates an executor that runs an external runner binary
func NewCommandExecutor(command string, cmdArgs ...string) Executor {
	return runner.NewCommandExecutor(command, cmdArgs...)
}

// NewRunner creates a runner. A nil config uses the defaults and a nil
// logger discards log output.
func NewRunner(executor Executor, config *Config, logger *zap.Logger) *Runner {
	return runner.New(executor, config, logger)
}
