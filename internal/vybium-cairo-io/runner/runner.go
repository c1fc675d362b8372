// Package runner sequences a zkVM execution with the argument encoder, the
// output decoder and the artifact codecs, and persists the results.
//
// A run encodes nothing itself: callers hand it typed arguments. It executes
// the program, decodes the output stream, writes the trace and memory
// artifacts concurrently, writes the output record, optionally indexes the
// record in the store, and finally writes the manifest.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/store"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/utils"
)

// Runner drives runs against an executor
type Runner struct {
	Executor Executor
	Config   *utils.Config
	Logger   *zap.Logger

	// Store indexes decoded records when set
	Store *store.Store
}

// Result is the outcome of a successful run
type Result[P any] struct {
	Record   *output.Record[P]
	Manifest *Manifest
}

// New creates a runner. A nil config uses the defaults and a nil logger
// discards log output.
func New(executor Executor, config *utils.Config, logger *zap.Logger) *Runner {
	if config == nil {
		config = utils.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Executor: executor, Config: config, Logger: logger}
}

// WithStore sets the record store
func (r *Runner) WithStore(s *store.Store) *Runner {
	r.Store = s
	return r
}

// EncodeInputs encodes a program inputs file with the configured bracket policy
func (r *Runner) EncodeInputs(path string) ([]args.Argument, error) {
	return r.Config.Decode.ArgsEncoder().EncodeFile(path)
}

// RunTransfer runs a program whose payload is a TransferEvent
func (r *Runner) RunTransfer(ctx context.Context, program string, arguments []args.Argument) (*Result[output.TransferEvent], error) {
	return Run(ctx, r, program, arguments, output.DecodeTransfer)
}

// Run executes program and persists its artifacts. The payload of the output
// stream is decoded with tail.
func Run[P any](ctx context.Context, r *Runner, program string, arguments []args.Argument, tail output.TailDecoder[P]) (*Result[P], error) {
	cfg := r.Config
	log := r.Logger.With(zap.String("program", program))
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("executing", zap.Int("arguments", len(arguments)), zap.String("layout", cfg.Runner.Layout))
	exe, err := r.Executor.Execute(ctx, program, arguments, ExecOptions{
		Layout:          cfg.Runner.Layout,
		ProofMode:       cfg.Runner.ProofMode,
		SerializeOutput: true,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if core.KindOf(err) == core.KindUpstreamExecution {
			return nil, err
		}
		return nil, core.WrapError(core.KindUpstreamExecution, "execute", err, "execution failed")
	}
	if exe == nil || exe.Output == nil {
		return nil, core.NewError(core.KindUpstreamExecution, "output", "execution returned no output")
	}
	log.Debug("executed", zap.Int("trace_entries", len(exe.Trace)), zap.Int("memory_size", len(exe.Memory)))

	// decode first so a malformed stream leaves no artifacts behind
	rec, err := output.Decode(cfg.Decode.OutputDecoder(), *exe.Output, tail)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Artifacts.Dir, 0o755); err != nil {
		return nil, core.WrapError(core.KindIOFailure, cfg.Artifacts.Dir, err, "creating artifacts directory")
	}
	// the manifest only exists next to artifacts of a completed run
	if err := os.Remove(cfg.Artifacts.ManifestPath()); err != nil && !os.IsNotExist(err) {
		return nil, core.WrapError(core.KindIOFailure, cfg.Artifacts.ManifestFile, err, "removing previous manifest")
	}

	manifest := &Manifest{
		Program:      program,
		TraceFile:    cfg.Artifacts.TraceFile,
		MemoryFile:   cfg.Artifacts.MemoryFile,
		OutputFile:   cfg.Artifacts.OutputFile,
		TraceEntries: len(exe.Trace),
	}
	if err := writeArtifacts(ctx, cfg.Artifacts, exe, manifest); err != nil {
		return nil, err
	}
	log.Info("artifacts written",
		zap.Uint64("trace_bytes", manifest.TraceBytes),
		zap.Uint64("memory_bytes", manifest.MemoryBytes),
		zap.Int("memory_cells", manifest.MemoryCells))

	outPath := cfg.Artifacts.OutputPath()
	err = codec.WithFileSink(outPath, 4096, func(w io.Writer) error {
		return output.Write(w, rec, output.Format(cfg.Artifacts.Format))
	})
	if err != nil {
		return nil, err
	}

	if r.Store != nil {
		if err := store.Put(ctx, r.Store, program, rec); err != nil {
			return nil, err
		}
		log.Debug("record stored", zap.ByteString("tx_hash", rec.TxHash))
	}

	manifest.TraceDigest = TraceDigest(exe.Trace)
	if err := WriteManifest(cfg.Artifacts.ManifestPath(), manifest); err != nil {
		return nil, err
	}
	log.Info("run complete", zap.Duration("elapsed", time.Since(start)))

	return &Result[P]{Record: rec, Manifest: manifest}, nil
}

// writeArtifacts writes trace and memory concurrently; both must succeed
func writeArtifacts(ctx context.Context, cfg utils.ArtifactsConfig, exe *Execution, m *Manifest) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return codec.WithFileSink(cfg.TracePath(), cfg.TraceBuffer, func(w io.Writer) error {
			hw := newHashingWriter(w)
			tw := codec.NewTraceWriter(hw)
			for i, e := range exe.Trace {
				if i%4096 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := tw.Write(e); err != nil {
					return err
				}
			}
			m.TraceBytes = tw.BytesWritten()
			m.TraceSHA3 = hw.Sum()
			return nil
		})
	})

	g.Go(func() error {
		return codec.WithFileSink(cfg.MemoryPath(), cfg.MemoryBuffer, func(w io.Writer) error {
			hw := newHashingWriter(w)
			mw := codec.NewMemoryWriter(hw)
			for addr, v := range exe.Memory {
				if addr%4096 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if v == nil {
					continue
				}
				if err := mw.WriteCell(uint64(addr), *v); err != nil {
					return err
				}
			}
			m.MemoryBytes = mw.BytesWritten()
			m.MemoryCells = mw.Cells()
			m.MemorySHA3 = hw.Sum()
			return nil
		})
	})

	return g.Wait()
}
