// Package dErrors provides coded domain errors.
//
// Stores return sentinel errors (pkg/platform/sentinel) describing
// infrastructure facts; services translate them into coded errors from this
// package so transports can map each failure to a status and a stable,
// machine-readable code. No error produced here is retryable: every code is
// a deterministic outcome of the current state and caller input.
package dErrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier. Codes are part of
// the API contract; renaming one is a breaking change.
type Code string

const (
	// Generic codes.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// Validation conflicts: caller input contradicts current state.
	CodeProtocolMismatch     Code = "protocol_mismatch"
	CodeDuplicateAssignment  Code = "duplicate_assignment"
	CodeEntryNotInProtocol   Code = "entry_not_in_protocol"
	CodeDuplicatePendingDose Code = "duplicate_pending_dose"

	// State guard violations: the requested transition is refused so UIs
	// can explain why, not just that it failed.
	CodeAlreadyInState           Code = "already_in_state"
	CodeAlreadyCompleted         Code = "already_completed"
	CodeAlreadyCancelled         Code = "already_cancelled"
	CodeImmutableState           Code = "immutable_state"
	CodeDoseDisabled             Code = "dose_disabled"
	CodeMissingAdministeredDate  Code = "missing_administered_date"
	CodeInvariantViolation       Code = "invariant_violation"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error while preserving
// the chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in transports.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so infrastructure failures never leak their details.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err, empty when uncoded.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
