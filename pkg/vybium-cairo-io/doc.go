// Package vybiumcairoio converts between the textual inputs and outputs of a
// Cairo zkVM run and the felt based formats the VM consumes and produces.
//
// # Features
//
// - Argument encoding from a bracket/whitespace grammar into scalar and array felts
// - Output decoding into versioned records, including Cairo byte arrays
// - Binary trace and memory artifacts with streaming writers and readers
// - A runner that executes a program and persists every artifact with a manifest
//
// # Quick Start
//
// Encoding program arguments:
//
//	arguments, err := vybiumcairoio.EncodeArguments("5 [1 2 3] 7")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Decoding a transfer program's output stream:
//
//	record, err := vybiumcairoio.DecodeTransferOutput(raw)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(record.ProgramOutputs.From, record.ProgramOutputs.Amount)
//
// Running a program through an external runner binary:
//
//	config := vybiumcairoio.DefaultConfig().WithArtifactsDir("out")
//	runner := vybiumcairoio.NewRunner(vybiumcairoio.NewCommandExecutor("cairo1-run"), config, nil)
//	result, err := runner.RunTransfer(ctx, "transfer.json", arguments)
//
// # Architecture
//
// - pkg/vybium-cairo-io/: Public API (this package)
// - internal/vybium-cairo-io/: Private implementation (not importable)
//
// Errors returned from this package are *IOError values carrying an
// ErrorCode; use CodeOf to classify them.
package vybiumcairoio
