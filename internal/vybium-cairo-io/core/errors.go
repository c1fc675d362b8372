package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the zkVM boundary
type ErrorKind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown ErrorKind = iota

	// KindInvalidArgument is a malformed or out-of-range argument token.
	// Raised before the zkVM is invoked.
	KindInvalidArgument

	// KindUnbalancedBrackets is a stray, nested or unterminated bracket
	// in the argument grammar
	KindUnbalancedBrackets

	// KindInvalidEncoding is a byte-array word or binary artifact that
	// does not decode
	KindInvalidEncoding

	// KindInvalidOutputFormat is an exhausted cursor or a structural field
	// of the wrong shape in the output stream
	KindInvalidOutputFormat

	// KindUpstreamExecution is a failure of the zkVM call itself
	KindUpstreamExecution

	// KindIOFailure is a persistence failure
	KindIOFailure

	// KindInvalidConfig is a configuration that fails validation
	KindInvalidConfig
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "unknown error",
	KindInvalidArgument:     "invalid argument",
	KindUnbalancedBrackets:  "unbalanced brackets",
	KindInvalidEncoding:     "invalid encoding",
	KindInvalidOutputFormat: "invalid output format",
	KindUpstreamExecution:   "upstream execution failure",
	KindIOFailure:           "io failure",
	KindInvalidConfig:       "invalid config",
}

// String returns the human readable name of the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is the error type returned by every boundary transform.
// Field names the value being decoded when the failure happened.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Cause   error
}

// Error returns the error message
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " [" + e.Field + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind, so the
// sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is matching
var (
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrUnbalancedBrackets  = &Error{Kind: KindUnbalancedBrackets}
	ErrInvalidEncoding     = &Error{Kind: KindInvalidEncoding}
	ErrInvalidOutputFormat = &Error{Kind: KindInvalidOutputFormat}
	ErrUpstreamExecution   = &Error{Kind: KindUpstreamExecution}
	ErrIOFailure           = &Error{Kind: KindIOFailure}
	ErrInvalidConfig       = &Error{Kind: KindInvalidConfig}
)

// NewError creates an error of the given kind
func NewError(kind ErrorKind, field string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError creates an error of the given kind caused by cause
func WrapError(kind ErrorKind, field string, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
