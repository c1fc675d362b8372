package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/runner"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/store"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newEncodeArgsCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "encode-args <inputs-file>",
		Short: "Encode a program inputs file into felt arguments, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			enc := args.NewEncoder()
			if lenient {
				enc.WithBrackets(args.LenientBrackets)
			}
			arguments, err := enc.EncodeFile(argv[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range arguments {
				fmt.Fprintln(out, a.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Close an unterminated array at end of input instead of failing")
	return cmd
}

func newDecodeOutputCmd() *cobra.Command {
	var (
		payload        string
		format         string
		decodeZero     bool
		enforcePending bool
		rejectTrailing bool
	)

	cmd := &cobra.Command{
		Use:   "decode-output <output-file|->",
		Short: "Decode a raw zkVM output stream into a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			raw, err := readInput(cmd, argv[0])
			if err != nil {
				return err
			}

			decode := utils.DefaultConfig().Decode
			if decodeZero {
				decode.ZeroWords = utils.ZeroWordsDecode
			}
			if enforcePending {
				decode.PendingLength = utils.PendingLengthEnforce
			}
			decode.RejectTrailing = rejectTrailing
			dec := decode.OutputDecoder()

			var rec interface{}
			switch payload {
			case "transfer":
				rec, err = dec.DecodeTransferRecord(raw)
			case "raw":
				rec, err = output.Decode[[]string](dec, raw, output.DecodeRaw)
			default:
				return fmt.Errorf("unknown payload %q, expected transfer or raw", payload)
			}
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), rec, output.Format(format))
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "transfer", "Payload decoder: transfer or raw")
	cmd.Flags().StringVar(&format, "format", "json", "Record format: json or cbor")
	cmd.Flags().BoolVar(&decodeZero, "decode-zero-words", false, "Decode zero words as NUL bytes instead of skipping them")
	cmd.Flags().BoolVar(&enforcePending, "enforce-pending-length", false, "Fail when a pending word's length does not match its declared length")
	cmd.Flags().BoolVar(&rejectTrailing, "reject-trailing", false, "Fail when tokens remain after the payload")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "run <program> <inputs-file>",
		Short: "Execute a program and write trace, memory, output and manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			cfg := utils.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = utils.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if outDir != "" {
				cfg.WithArtifactsDir(outDir)
			}
			if cfg.Runner.Command == "" {
				return fmt.Errorf("no runner command configured; set [runner] command in the config file")
			}

			logger, err := utils.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			r := runner.New(runner.NewCommandExecutor(cfg.Runner.Command, cfg.Runner.CommandArgs...), cfg, logger)
			if cfg.Store.Path != "" {
				s, err := store.Open(cfg.Store.Path)
				if err != nil {
					return err
				}
				defer s.Close()
				r.WithStore(s)
			}

			arguments, err := r.EncodeInputs(argv[1])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := r.RunTransfer(ctx, argv[0], arguments)
			if err != nil {
				logger.Error("run failed", zap.Error(err))
				return err
			}
			data, err := json.MarshalIndent(res.Manifest, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a TOML run configuration")
	cmd.Flags().StringVar(&outDir, "out", "", "Artifacts directory, overriding the configuration")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var dense bool

	cmd := &cobra.Command{
		Use:   "inspect trace|memory|manifest <file>",
		Short: "Print the contents of a binary artifact or verify a manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, argv []string) error {
			out := cmd.OutOrStdout()
			switch argv[0] {
			case "trace":
				return withFile(argv[1], func(r io.Reader) error {
					tr := codec.NewTraceReader(r)
					for i := 0; ; i++ {
						e, err := tr.Next()
						if err == io.EOF {
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%d\tpc=%d fp=%d ap=%d\n", i, e.PC, e.FP, e.AP)
					}
				})
			case "memory":
				return withFile(argv[1], func(r io.Reader) error {
					if dense {
						cells, err := codec.ReadMemory(r)
						if err != nil {
							return err
						}
						image, err := codec.Dense(cells)
						if err != nil {
							return err
						}
						for addr, v := range image {
							if v == nil {
								fmt.Fprintf(out, "%d\t-\n", addr)
								continue
							}
							fmt.Fprintf(out, "%d\t%s\n", addr, v)
						}
						return nil
					}
					mr := codec.NewMemoryReader(r)
					for {
						c, err := mr.Next()
						if err == io.EOF {
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%d\t%s\n", c.Address, c.Value)
					}
				})
			case "manifest":
				m, err := runner.ReadManifest(argv[1])
				if err != nil {
					return err
				}
				if err := m.Verify(filepath.Dir(argv[1])); err != nil {
					return err
				}
				fmt.Fprintf(out, "ok: %d trace entries, %d memory cells, digest %s\n",
					m.TraceEntries, m.MemoryCells, m.TraceDigest)
				return nil
			default:
				return fmt.Errorf("unknown artifact %q, expected trace, memory or manifest", argv[0])
			}
		},
	}
	cmd.Flags().BoolVar(&dense, "dense", false, "Print memory as a dense image with '-' for unset addresses")
	return cmd
}

func newAnnotateCmd() *cobra.Command {
	var (
		dbPath string
		txHash string
		block  uint64
		when   uint64
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Set the block number and time of a stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := context.Background()
			if err := s.SetBlock(ctx, txHash, block, when); err != nil {
				return err
			}
			rec, _, err := store.Get[map[string]interface{}](ctx, s, txHash)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), rec, output.FormatJSON)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "records.db", "Path to the record store")
	cmd.Flags().StringVar(&txHash, "tx", "", "Transaction hash of the record")
	cmd.Flags().Uint64Var(&block, "block", 0, "Block number")
	cmd.Flags().Uint64Var(&when, "time", 0, "Block time")
	_ = cmd.MarkFlagRequired("tx")
	return cmd
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}
