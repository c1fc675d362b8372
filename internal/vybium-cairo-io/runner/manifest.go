package runner

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	tip5 "github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manifest describes the artifacts of a completed run. It is written last;
// its presence marks the run as successful.
type Manifest struct {
	Program    string `json:"program"`
	TraceFile  string `json:"trace_file"`
	MemoryFile string `json:"memory_file"`
	OutputFile string `json:"output_file"`

	// SHA3-256 of the artifact bytes, hex encoded
	TraceSHA3  string `json:"trace_sha3"`
	MemorySHA3 string `json:"memory_sha3"`

	TraceEntries int    `json:"trace_entries"`
	MemoryCells  int    `json:"memory_cells"`
	TraceBytes   uint64 `json:"trace_bytes"`
	MemoryBytes  uint64 `json:"memory_bytes"`

	// Tip5 digest over the trace registers
	TraceDigest string `json:"trace_digest"`
}

// TraceDigest hashes the trace registers with Tip5. Each register is split
// into two 32-bit limbs so every u64 maps to Goldilocks elements injectively.
func TraceDigest(entries []codec.TraceEntry) string {
	elements := make([]field.Element, 0, 1+6*len(entries))
	elements = append(elements, field.New(uint64(len(entries))))
	for _, e := range entries {
		for _, v := range [3]uint64{e.PC, e.FP, e.AP} {
			elements = append(elements, field.New(v&0xffffffff), field.New(v>>32))
		}
	}
	digest := tip5.HashVarlen(elements)

	out := make([]byte, 0, 16*len(digest))
	for _, elem := range digest {
		out = fmt.Appendf(out, "%016x", elem.Value())
	}
	return string(out)
}

// hashingWriter feeds everything written through it into a SHA3-256 state
type hashingWriter struct {
	w io.Writer
	h hash.Hash
}

func newHashingWriter(w io.Writer) *hashingWriter {
	h := sha3.New256()
	return &hashingWriter{w: io.MultiWriter(w, h), h: h}
}

func (hw *hashingWriter) Write(p []byte) (int, error) {
	return hw.w.Write(p)
}

func (hw *hashingWriter) Sum() string {
	return hex.EncodeToString(hw.h.Sum(nil))
}

// WriteManifest writes m as indented JSON to path
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "encoding manifest")
	}
	return codec.WithFileSink(path, len(data)+1, func(w io.Writer) error {
		if _, err := w.Write(append(data, '\n')); err != nil {
			return core.WrapError(core.KindIOFailure, path, err, "writing manifest")
		}
		return nil
	})
}

// ReadManifest reads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, path, err, "reading manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, core.WrapError(core.KindInvalidEncoding, path, err, "parsing manifest")
	}
	return &m, nil
}

// Verify recomputes the artifact digests for files in dir and compares
// them with the manifest
func (m *Manifest) Verify(dir string) error {
	traceSum, entries, err := digestTrace(filepath.Join(dir, m.TraceFile))
	if err != nil {
		return err
	}
	if traceSum != m.TraceSHA3 {
		return core.NewError(core.KindInvalidEncoding, m.TraceFile, "sha3 mismatch: have %s, manifest %s", traceSum, m.TraceSHA3)
	}
	if digest := TraceDigest(entries); digest != m.TraceDigest {
		return core.NewError(core.KindInvalidEncoding, m.TraceFile, "trace digest mismatch")
	}

	memorySum, cells, err := digestMemory(filepath.Join(dir, m.MemoryFile))
	if err != nil {
		return err
	}
	if memorySum != m.MemorySHA3 {
		return core.NewError(core.KindInvalidEncoding, m.MemoryFile, "sha3 mismatch: have %s, manifest %s", memorySum, m.MemorySHA3)
	}
	if cells != m.MemoryCells {
		return core.NewError(core.KindInvalidEncoding, m.MemoryFile, "%d cells, manifest %d", cells, m.MemoryCells)
	}
	return nil
}

func digestTrace(path string) (string, []codec.TraceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, core.WrapError(core.KindIOFailure, path, err, "opening trace")
	}
	defer f.Close()

	h := sha3.New256()
	entries, err := codec.ReadTrace(io.TeeReader(f, h))
	if err != nil {
		return "", nil, err
	}
	return hex.EncodeToString(h.Sum(nil)), entries, nil
}

func digestMemory(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, core.WrapError(core.KindIOFailure, path, err, "opening memory")
	}
	defer f.Close()

	h := sha3.New256()
	cells, err := codec.ReadMemory(io.TeeReader(f, h))
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), len(cells), nil
}
