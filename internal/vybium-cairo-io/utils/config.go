package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/bytearray"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
)

// Config is the configuration of a run, loaded from TOML
type Config struct {
	Runner    RunnerConfig    `toml:"runner"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Decode    DecodeConfig    `toml:"decode"`
	Log       LogConfig       `toml:"log"`
	Store     StoreConfig     `toml:"store"`
}

// RunnerConfig selects and parameterises the executor
type RunnerConfig struct {
	Layout    string `toml:"layout"`
	ProofMode bool   `toml:"proof_mode"`

	// Command is the external runner binary. Empty means no command executor.
	Command     string   `toml:"command"`
	CommandArgs []string `toml:"command_args"`
}

// ArtifactsConfig names the files a run produces
type ArtifactsConfig struct {
	Dir          string `toml:"dir"`
	TraceFile    string `toml:"trace_file"`
	MemoryFile   string `toml:"memory_file"`
	OutputFile   string `toml:"output_file"`
	ManifestFile string `toml:"manifest_file"`
	TraceBuffer  int    `toml:"trace_buffer"`
	MemoryBuffer int    `toml:"memory_buffer"`
	// Format of the output record file, "json" or "cbor"
	Format string `toml:"format"`
}

// DecodeConfig holds the decoding policies
type DecodeConfig struct {
	ZeroWords      string `toml:"zero_words"`
	PendingLength  string `toml:"pending_length"`
	Brackets       string `toml:"brackets"`
	RejectTrailing bool   `toml:"reject_trailing"`
}

// StoreConfig locates the record store. An empty path disables it.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Policy values accepted in DecodeConfig
const (
	ZeroWordsSkip   = "skip"
	ZeroWordsDecode = "decode"

	PendingLengthIgnore  = "ignore"
	PendingLengthEnforce = "enforce"

	BracketsStrict  = "strict"
	BracketsLenient = "lenient"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			Layout:    "all_cairo",
			ProofMode: true,
		},
		Artifacts: ArtifactsConfig{
			Dir:          ".",
			TraceFile:    "trace.bin",
			MemoryFile:   "memory.bin",
			OutputFile:   "output.json",
			ManifestFile: "manifest.json",
			TraceBuffer:  codec.DefaultTraceBufferSize,
			MemoryBuffer: codec.DefaultMemoryBufferSize,
			Format:       string(output.FormatJSON),
		},
		Decode: DecodeConfig{
			ZeroWords:     ZeroWordsSkip,
			PendingLength: PendingLengthIgnore,
			Brackets:      BracketsStrict,
		},
		Log: LogConfig{
			Environment: EnvironmentProduction,
			Level:       "info",
			Outputs:     []string{"stderr"},
		},
	}
}

// LoadConfig reads a TOML file over the defaults and validates the result.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, path, err, "cannot read config")
	}
	return ParseConfig(string(data))
}

// ParseConfig parses TOML text over the defaults and validates the result
func ParseConfig(text string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.Decode(text, c)
	if err != nil {
		return nil, core.WrapError(core.KindInvalidConfig, "", err, "parse error")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, core.NewError(core.KindInvalidConfig, keys[0], "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Artifacts.TraceFile == "" || c.Artifacts.MemoryFile == "" ||
		c.Artifacts.OutputFile == "" || c.Artifacts.ManifestFile == "" {
		return core.NewError(core.KindInvalidConfig, "artifacts", "artifact file names must not be empty")
	}
	if c.Artifacts.TraceBuffer <= 0 {
		return core.NewError(core.KindInvalidConfig, "artifacts.trace_buffer", "must be positive, got %d", c.Artifacts.TraceBuffer)
	}
	if c.Artifacts.MemoryBuffer <= 0 {
		return core.NewError(core.KindInvalidConfig, "artifacts.memory_buffer", "must be positive, got %d", c.Artifacts.MemoryBuffer)
	}
	switch output.Format(c.Artifacts.Format) {
	case output.FormatJSON, output.FormatCBOR:
	default:
		return core.NewError(core.KindInvalidConfig, "artifacts.format", "must be 'json' or 'cbor', got '%s'", c.Artifacts.Format)
	}
	if c.Decode.ZeroWords != ZeroWordsSkip && c.Decode.ZeroWords != ZeroWordsDecode {
		return core.NewError(core.KindInvalidConfig, "decode.zero_words", "must be 'skip' or 'decode', got '%s'", c.Decode.ZeroWords)
	}
	if c.Decode.PendingLength != PendingLengthIgnore && c.Decode.PendingLength != PendingLengthEnforce {
		return core.NewError(core.KindInvalidConfig, "decode.pending_length", "must be 'ignore' or 'enforce', got '%s'", c.Decode.PendingLength)
	}
	if c.Decode.Brackets != BracketsStrict && c.Decode.Brackets != BracketsLenient {
		return core.NewError(core.KindInvalidConfig, "decode.brackets", "must be 'strict' or 'lenient', got '%s'", c.Decode.Brackets)
	}
	return c.Log.Validate()
}

// WithLayout sets the runner layout
func (c *Config) WithLayout(layout string) *Config {
	c.Runner.Layout = layout
	return c
}

// WithProofMode sets proof mode
func (c *Config) WithProofMode(proofMode bool) *Config {
	c.Runner.ProofMode = proofMode
	return c
}

// WithCommand sets the external runner command
func (c *Config) WithCommand(command string, cmdArgs ...string) *Config {
	c.Runner.Command = command
	c.Runner.CommandArgs = append([]string(nil), cmdArgs...)
	return c
}

// WithArtifactsDir sets the directory artifacts are written to
func (c *Config) WithArtifactsDir(dir string) *Config {
	c.Artifacts.Dir = dir
	return c
}

// WithFormat sets the output record format
func (c *Config) WithFormat(format output.Format) *Config {
	c.Artifacts.Format = string(format)
	return c
}

// WithStorePath sets the record store path
func (c *Config) WithStorePath(path string) *Config {
	c.Store.Path = path
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	out := *c
	out.Runner.CommandArgs = append([]string(nil), c.Runner.CommandArgs...)
	out.Log.Outputs = append([]string(nil), c.Log.Outputs...)
	return &out
}

// TracePath returns the trace artifact path
func (a ArtifactsConfig) TracePath() string { return filepath.Join(a.Dir, a.TraceFile) }

// MemoryPath returns the memory artifact path
func (a ArtifactsConfig) MemoryPath() string { return filepath.Join(a.Dir, a.MemoryFile) }

// OutputPath returns the output record path
func (a ArtifactsConfig) OutputPath() string { return filepath.Join(a.Dir, a.OutputFile) }

// ManifestPath returns the manifest path
func (a ArtifactsConfig) ManifestPath() string { return filepath.Join(a.Dir, a.ManifestFile) }

// ArgsEncoder builds the argument encoder for the configured bracket policy
func (d DecodeConfig) ArgsEncoder() *args.Encoder {
	if d.Brackets == BracketsLenient {
		return args.NewEncoder().WithBrackets(args.LenientBrackets)
	}
	return args.NewEncoder()
}

// WordDecoder builds the byte array decoder for the configured policies
func (d DecodeConfig) WordDecoder() *bytearray.Decoder {
	dec := bytearray.NewDecoder()
	if d.ZeroWords == ZeroWordsDecode {
		dec.WithZeroWords(bytearray.DecodeAllWords)
	}
	if d.PendingLength == PendingLengthEnforce {
		dec.WithPendingLength(bytearray.EnforcePendingLength)
	}
	return dec
}

// OutputDecoder builds the output decoder for the configured policies
func (d DecodeConfig) OutputDecoder() *output.Decoder {
	return output.NewDecoder().WithWords(d.WordDecoder()).WithRejectTrailing(d.RejectTrailing)
}
