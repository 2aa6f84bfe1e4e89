// Package domainerrors defines the domain error type shared by all services.
// Services translate infrastructure sentinels (pkg/platform/sentinel) into these
// coded errors at the service boundary; transports translate codes into wire
// responses without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	// CodeInvalidInput marks malformed or out-of-range caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-update conflict.
	CodeConflict Code = "conflict"
	// CodeInvalidState marks an action attempted against the wrong lifecycle
	// state, e.g. accepting a match that is no longer pending.
	CodeInvalidState Code = "invalid_state"
	// CodeUnauthorized marks an actor that is not the owner of the data it is
	// trying to act on.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an action refused by policy regardless of ownership,
	// e.g. revoking a connection past the hired stage.
	CodeForbidden Code = "forbidden"
	// CodeTimeout marks a context deadline or cancellation.
	CodeTimeout Code = "timeout"
	// CodeInvariantViolation marks a broken domain invariant detected at runtime.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a domain error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and caller-safe message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeInternal when err is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
