package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/store"
)

const transferStream = "[1 12 34 0 0 0 0 0 0 5678 0 97 1 0 98 1 42]"

func execute(t *testing.T, stdin string, argv ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(argv)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEncodeArgsCmd(t *testing.T) {
	path := writeFile(t, "inputs.txt", "5 [1 2 3]\n7")
	out, err := execute(t, "", "encode-args", path)
	require.NoError(t, err)
	assert.Equal(t, "5\n[1 2 3]\n7\n", out)

	_, err = execute(t, "", "encode-args", writeFile(t, "bad.txt", "[1 2"))
	assert.Error(t, err)

	out, err = execute(t, "", "encode-args", "--lenient", writeFile(t, "open.txt", "[1 2"))
	require.NoError(t, err)
	assert.Equal(t, "[1 2]\n", out)
}

func TestDecodeOutputCmd(t *testing.T) {
	out, err := execute(t, transferStream, "decode-output", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"program_outputs":{"from":"a","to":"b","amount":42}`)

	out, err = execute(t, transferStream, "decode-output", "--payload", "raw", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"program_outputs":["0","97","1","0","98","1","42"]`)

	out, err = execute(t, transferStream, "decode-output", "--format", "cbor", "-")
	require.NoError(t, err)
	var rec output.Record[output.TransferEvent]
	require.NoError(t, output.UnmarshalCBOR([]byte(out), &rec))
	assert.Equal(t, uint64(42), rec.ProgramOutputs.Amount)

	_, err = execute(t, "[1 12]", "decode-output", "-")
	assert.Error(t, err)
	_, err = execute(t, transferStream, "decode-output", "--payload", "swap", "-")
	assert.Error(t, err)
}

func TestInspectCmd(t *testing.T) {
	var trace bytes.Buffer
	require.NoError(t, codec.EncodeTrace(&trace, []codec.TraceEntry{{AP: 1, FP: 2, PC: 3}}))
	out, err := execute(t, "", "inspect", "trace", writeFile(t, "trace.bin", trace.String()))
	require.NoError(t, err)
	assert.Equal(t, "0\tpc=3 fp=2 ap=1\n", out)

	_, err = execute(t, "", "inspect", "trace", writeFile(t, "short.bin", "abc"))
	assert.Error(t, err)

	var mem bytes.Buffer
	nine := core.NewFeltFromUint64(9)
	require.NoError(t, codec.EncodeMemory(&mem, []*core.Felt{nil, &nine}))
	memPath := writeFile(t, "memory.bin", mem.String())

	out, err = execute(t, "", "inspect", "memory", memPath)
	require.NoError(t, err)
	assert.Equal(t, "1\t9\n", out)

	out, err = execute(t, "", "inspect", "memory", "--dense", memPath)
	require.NoError(t, err)
	assert.Equal(t, "0\t-\n1\t9\n", out)

	var far bytes.Buffer
	mw := codec.NewMemoryWriter(&far)
	require.NoError(t, mw.WriteCell(1<<40, nine))
	_, err = execute(t, "", "inspect", "memory", "--dense", writeFile(t, "far.bin", far.String()))
	assert.True(t, errors.Is(err, core.ErrInvalidEncoding), "got %v", err)

	_, err = execute(t, "", "inspect", "heap", "x")
	assert.Error(t, err)
}

func TestAnnotateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	rec, err := output.NewDecoder().DecodeTransferRecord(transferStream)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), s, "p", rec))
	require.NoError(t, s.Close())

	out, err := execute(t, "", "annotate", "--db", dbPath, "--tx", "5678", "--block", "10", "--time", "20")
	require.NoError(t, err)
	assert.Contains(t, out, `"block_number":10`)
	assert.Contains(t, out, `"block_time":20`)

	_, err = execute(t, "", "annotate", "--db", dbPath, "--tx", "missing", "--block", "1")
	assert.Error(t, err)
}

func TestRunCmdRequiresCommand(t *testing.T) {
	_, err := execute(t, "", "run", "--out", t.TempDir(), "program.json", writeFile(t, "inputs.txt", "1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runner command")
}
