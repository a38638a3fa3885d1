// Package domainerrors carries typed error codes across service boundaries.
//
// Services return *Error values; transports and workers inspect the code to
// decide how to report or whether a retry is worthwhile.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeValidation             Code = "validation_failed"
	CodeInvalidInput           Code = "invalid_input"
	CodeNotFound               Code = "not_found"
	CodeIdentityMismatch       Code = "identity_mismatch"
	CodeInvalidState           Code = "invalid_state"
	CodeUnsupportedMediaType   Code = "unsupported_media_type"
	CodeBudgetUnreachable      Code = "compression_budget_unreachable"
	CodeDecodeFailed           Code = "decode_failed"
	CodeUpstreamAuthFailure    Code = "upstream_auth_failure"
	CodeUpstreamServiceFailure Code = "upstream_service_failure"
	CodeTimeout                Code = "timeout"
	CodeConflict               Code = "conflict"
	CodeInvariantViolation     Code = "invariant_violation"
	CodeInternal               Code = "internal"
)

// Error is a coded error with an optional cause.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// Is is shorthand for HasCode, kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRecoverable reports whether a caller retry can succeed. Malformed input
// and state violations are final for the request that produced them.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case CodeUpstreamAuthFailure, CodeUpstreamServiceFailure, CodeTimeout, CodeInternal, CodeConflict:
		return true
	default:
		return false
	}
}
