package vybiumcairoio

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// ErrorCode represents a vybium-cairo-io error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidArgument represents a malformed or out of range argument token
	ErrInvalidArgument

	// ErrUnbalancedBrackets represents mismatched array brackets in arguments
	ErrUnbalancedBrackets

	// ErrInvalidEncoding represents a byte array word or artifact that does not decode
	ErrInvalidEncoding

	// ErrInvalidOutputFormat represents an exhausted or wrongly shaped output stream
	ErrInvalidOutputFormat

	// ErrUpstreamExecution represents a failed zkVM execution
	ErrUpstreamExecution

	// ErrIOFailure represents a failure to read or persist data
	ErrIOFailure

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:             "unknown",
	ErrInvalidArgument:     "invalid argument",
	ErrUnbalancedBrackets:  "unbalanced brackets",
	ErrInvalidEncoding:     "invalid encoding",
	ErrInvalidOutputFormat: "invalid output format",
	ErrUpstreamExecution:   "upstream execution failure",
	ErrIOFailure:           "io failure",
	ErrInvalidConfig:       "invalid config",
}

// String returns the name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// IOError represents a vybium-cairo-io error
type IOError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *IOError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-cairo-io error [%d]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-cairo-io error [%d]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *IOError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *IOError) Is(target error) bool {
	t, ok := target.(*IOError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the code of err, or ErrUnknown
func CodeOf(err error) ErrorCode {
	var e *IOError
	if errors.As(err, &e) {
		return e.Code
	}
	return codeForKind(core.KindOf(err))
}

func codeForKind(k core.ErrorKind) ErrorCode {
	switch k {
	case core.KindInvalidArgument:
		return ErrInvalidArgument
	case core.KindUnbalancedBrackets:
		return ErrUnbalancedBrackets
	case core.KindInvalidEncoding:
		return ErrInvalidEncoding
	case core.KindInvalidOutputFormat:
		return ErrInvalidOutputFormat
	case core.KindUpstreamExecution:
		return ErrUpstreamExecution
	case core.KindIOFailure:
		return ErrIOFailure
	case core.KindInvalidConfig:
		return ErrInvalidConfig
	default:
		return ErrUnknown
	}
}

// wrapError converts an internal error into an *IOError
func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &IOError{Code: codeForKind(core.KindOf(err)), Message: message, Cause: err}
}
