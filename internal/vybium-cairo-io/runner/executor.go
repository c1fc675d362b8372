package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/args"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/codec"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// ExecOptions are forwarded to the zkVM
type ExecOptions struct {
	Layout          string `json:"layout"`
	ProofMode       bool   `json:"proof_mode"`
	SerializeOutput bool   `json:"serialize_output"`
}

// Execution is what the zkVM returns for one program run
type Execution struct {
	// Trace is the relocated trace, one entry per step
	Trace []codec.TraceEntry `json:"trace"`

	// Memory is the relocated memory image; a nil entry is an unoccupied address
	Memory []*core.Felt `json:"memory"`

	// Output is the serialised return value, present when requested
	Output *string `json:"output"`
}

// Executor runs a compiled program on the zkVM
type Executor interface {
	Execute(ctx context.Context, program string, arguments []args.Argument, opts ExecOptions) (*Execution, error)
}

// StaticExecutor returns a fixed execution regardless of input.
// Used for replaying recorded runs.
type StaticExecutor struct {
	Result *Execution
	Err    error
}

// Execute returns the stored result
func (s *StaticExecutor) Execute(ctx context.Context, _ string, _ []args.Argument, _ ExecOptions) (*Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// ExecRequest is the JSON document a CommandExecutor writes to the runner's stdin
type ExecRequest struct {
	Program   string `json:"program"`
	Arguments string `json:"arguments"`
	ExecOptions
}

// CommandExecutor runs an external runner binary. The request is passed as
// JSON on stdin and the Execution is read as JSON from stdout.
type CommandExecutor struct {
	Command string
	Args    []string
	// Env is appended to the current environment
	Env []string
}

// NewCommandExecutor creates a command executor
func NewCommandExecutor(command string, cmdArgs ...string) *CommandExecutor {
	return &CommandExecutor{Command: command, Args: cmdArgs}
}

// Execute runs the command and decodes its result
func (e *CommandExecutor) Execute(ctx context.Context, program string, arguments []args.Argument, opts ExecOptions) (*Execution, error) {
	req, err := json.Marshal(ExecRequest{
		Program:     program,
		Arguments:   args.Format(arguments),
		ExecOptions: opts,
	})
	if err != nil {
		return nil, core.WrapError(core.KindUpstreamExecution, "request", err, "encoding request")
	}

	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no stderr output"
		}
		return nil, core.WrapError(core.KindUpstreamExecution, e.Command, err, "runner failed: %s", msg)
	}

	var result Execution
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, core.WrapError(core.KindUpstreamExecution, e.Command, err, "decoding runner result")
	}
	return &result, nil
}
