package vybiumcairoio

import (
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/runner"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/utils"
)

// Felt is an element of the Stark prime field
type Felt = core.Felt

// Argument is a scalar or array program argument
type Argument = args.Argument

// TraceEntry is the register state of one executed step
type TraceEntry = codec.TraceEntry

// MemoryCell is one occupied address of the relocated memory
type MemoryCell = codec.MemoryCell

// Prefix is the payload independent part of an output record
type Prefix = output.Prefix

// TransferEvent is the payload of a token transfer program
type TransferEvent = output.TransferEvent

// TransferRecord is an output record carrying a TransferEvent
type TransferRecord = output.Record[output.TransferEvent]

// Execution is what the zkVM returns for one program run
type Execution = runner.Execution

// ExecOptions are forwarded to the zkVM
type ExecOptions = runner.ExecOptions

// Executor runs a compiled program on the zkVM
type Executor = runner.Executor

// Runner drives runs against an executor
type Runner = runner.Runner

// Manifest describes the artifacts of a completed run
type Manifest = runner.Manifest

// Config is the run configuration
type Config = utils.Config
