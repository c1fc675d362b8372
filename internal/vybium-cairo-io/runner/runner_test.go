package runner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/store"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/utils"
)

func shortString(s string) string {
	if s == "" {
		return "0 0 0"
	}
	return fmt.Sprintf("0 %s %d", new(big.Int).SetBytes([]byte(s)), len(s))
}

func transferOutput(from, to string, amount uint64) string {
	return fmt.Sprintf("[1 12 34 %s %s 5678 %s %s %d]",
		shortString(""), shortString(""), shortString(from), shortString(to), amount)
}

func feltPtr(v uint64) *core.Felt {
	f := core.NewFeltFromUint64(v)
	return &f
}

func sampleExecution() *Execution {
	out := transferOutput("alice", "bob", 250)
	return &Execution{
		Trace: []codec.TraceEntry{
			{PC: 3, FP: 2, AP: 1},
			{PC: 5, FP: 2, AP: 2},
		},
		Memory: []*core.Felt{nil, feltPtr(7), nil, feltPtr(9)},
		Output: &out,
	}
}

func newRunner(t *testing.T, exec Executor) *Runner {
	t.Helper()
	cfg := utils.DefaultConfig().WithArtifactsDir(filepath.Join(t.TempDir(), "out"))
	return New(exec, cfg, zaptest.NewLogger(t))
}

func TestRunTransfer(t *testing.T) {
	r := newRunner(t, &StaticExecutor{Result: sampleExecution()})

	res, err := r.RunTransfer(context.Background(), "transfer.json", []args.Argument{args.NewScalar(core.NewFeltFromUint64(1))})
	require.NoError(t, err)

	assert.Equal(t, "alice", res.Record.ProgramOutputs.From)
	assert.Equal(t, uint64(250), res.Record.ProgramOutputs.Amount)

	m := res.Manifest
	assert.Equal(t, 2, m.TraceEntries)
	assert.Equal(t, 2, m.MemoryCells)
	assert.Equal(t, uint64(2*codec.TraceEntrySize), m.TraceBytes)
	assert.Equal(t, uint64(2*codec.MemoryCellSize), m.MemoryBytes)
	assert.Len(t, m.TraceSHA3, 64)
	assert.Len(t, m.MemorySHA3, 64)
	assert.Equal(t, TraceDigest(sampleExecution().Trace), m.TraceDigest)

	a := r.Config.Artifacts
	f, err := os.Open(a.TracePath())
	require.NoError(t, err)
	defer f.Close()
	trace, err := codec.ReadTrace(f)
	require.NoError(t, err)
	assert.Equal(t, sampleExecution().Trace, trace)

	data, err := os.ReadFile(a.OutputPath())
	require.NoError(t, err)
	var rec output.Record[output.TransferEvent]
	require.NoError(t, output.UnmarshalJSON(data, &rec))
	assert.Equal(t, res.Record.ProgramOutputs, rec.ProgramOutputs)

	onDisk, err := ReadManifest(a.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, m, onDisk)
	require.NoError(t, onDisk.Verify(a.Dir))
}

func TestRunCBOROutput(t *testing.T) {
	r := newRunner(t, &StaticExecutor{Result: sampleExecution()})
	r.Config.WithFormat(output.FormatCBOR)

	_, err := r.RunTransfer(context.Background(), "p", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(r.Config.Artifacts.OutputPath())
	require.NoError(t, err)
	var rec output.Record[output.TransferEvent]
	require.NoError(t, output.UnmarshalCBOR(data, &rec))
	assert.Equal(t, "bob", rec.ProgramOutputs.To)
}

func TestRunWithStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer s.Close()

	r := newRunner(t, &StaticExecutor{Result: sampleExecution()}).WithStore(s)
	_, err = r.RunTransfer(ctx, "transfer.json", nil)
	require.NoError(t, err)

	rec, program, err := store.Get[output.TransferEvent](ctx, s, "5678")
	require.NoError(t, err)
	assert.Equal(t, "transfer.json", program)
	assert.Equal(t, uint64(250), rec.ProgramOutputs.Amount)
}

func TestRunUpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		exec *StaticExecutor
	}{
		{"executor error", &StaticExecutor{Err: errors.New("vm crashed")}},
		{"no output", &StaticExecutor{Result: &Execution{}}},
		{"nil execution", &StaticExecutor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.exec)
			_, err := r.RunTransfer(context.Background(), "p", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrUpstreamExecution), "got %v", err)

			_, statErr := os.Stat(r.Config.Artifacts.Dir)
			assert.True(t, os.IsNotExist(statErr), "no artifacts directory expected")
		})
	}
}

func TestRunMalformedOutput(t *testing.T) {
	exe := sampleExecution()
	bad := "[1 12 34 0 0]"
	exe.Output = &bad
	r := newRunner(t, &StaticExecutor{Result: exe})

	_, err := r.RunTransfer(context.Background(), "p", nil)
	assert.True(t, errors.Is(err, core.ErrInvalidOutputFormat), "got %v", err)

	_, statErr := os.Stat(r.Config.Artifacts.ManifestPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, &StaticExecutor{Result: sampleExecution()})
	_, err := r.RunTransfer(ctx, "p", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRemovesStaleManifest(t *testing.T) {
	r := newRunner(t, &StaticExecutor{Result: sampleExecution()})
	_, err := r.RunTransfer(context.Background(), "p", nil)
	require.NoError(t, err)

	// second run fails while writing memory
	exe := sampleExecution()
	exe.Memory = nil
	r.Executor = &StaticExecutor{Result: exe}
	r.Config.Artifacts.MemoryFile = filepath.Join("missing", "memory.bin")

	_, err = r.RunTransfer(context.Background(), "p", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIOFailure), "got %v", err)

	_, statErr := os.Stat(r.Config.Artifacts.ManifestPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunGenericPayload(t *testing.T) {
	exe := sampleExecution()
	raw := "[1 0 1 0 0 0 0 0 0 0 11 22 33]"
	exe.Output = &raw
	r := newRunner(t, &StaticExecutor{Result: exe})

	res, err := Run[[]string](context.Background(), r, "p", nil, output.DecodeRaw)
	require.NoError(t, err)
	assert.Equal(t, []string{"11", "22", "33"}, res.Record.ProgramOutputs)
}

func TestEncodeInputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.txt")
	require.NoError(t, os.WriteFile(path, []byte("5 [1 2 3]\n7\n"), 0o644))

	r := newRunner(t, &StaticExecutor{})
	arguments, err := r.EncodeInputs(path)
	require.NoError(t, err)
	assert.Equal(t, "5 [1 2 3] 7", args.Format(arguments))
}

func TestManifestVerifyDetectsTampering(t *testing.T) {
	r := newRunner(t, &StaticExecutor{Result: sampleExecution()})
	res, err := r.RunTransfer(context.Background(), "p", nil)
	require.NoError(t, err)

	a := r.Config.Artifacts
	require.NoError(t, os.WriteFile(a.TracePath(), make([]byte, codec.TraceEntrySize), 0o644))
	err = res.Manifest.Verify(a.Dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sha3 mismatch"), err.Error())
}

func TestTraceDigest(t *testing.T) {
	a := TraceDigest(nil)
	b := TraceDigest([]codec.TraceEntry{{}})
	c := TraceDigest([]codec.TraceEntry{{PC: 1 << 32}})
	d := TraceDigest([]codec.TraceEntry{{PC: 1}})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, c, d)
	assert.Equal(t, c, TraceDigest([]codec.TraceEntry{{PC: 1 << 32}}))
	assert.Regexp(t, "^[0-9a-f]+$", a)
}
