// Package errors provides structured error types for gns3-snapshot.
//
// Every failure that can end a thumbnail job carries a machine-readable [Code]
// so the batch report, the CLI and the HTTP API can classify it the same way:
//
//   - FETCH_ERROR: topology unreachable or malformed
//   - ICON_UNAVAILABLE: every icon source failed (recovered by shape rendering)
//   - RENDER_ERROR: the rasterizer rejected a drawing
//   - WRITE_ERROR: the output bitmap could not be stored
//   - CANCELLED: the run or job was cancelled before completion
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid project id: %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "fetch project %s", id)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Job failure taxonomy
	ErrCodeFetch           Code = "FETCH_ERROR"
	ErrCodeIconUnavailable Code = "ICON_UNAVAILABLE"
	ErrCodeRender          Code = "RENDER_ERROR"
	ErrCodeWrite           Code = "WRITE_ERROR"
	ErrCodeCancelled       Code = "CANCELLED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Transport errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Context cancellation and deadline errors map to ErrCodeCancelled and
// ErrCodeFetch respectively when no *Error is present in the chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeFetch
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message followed by the cause, without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// Cancelled wraps a context error as an ErrCodeCancelled error.
// A nil cause yields context.Canceled.
func Cancelled(cause error, format string, args ...any) *Error {
	if cause == nil {
		cause = context.Canceled
	}
	return Wrap(ErrCodeCancelled, cause, format, args...)
}

// FromContext classifies an error seen while waiting on the network:
// cancellation becomes ErrCodeCancelled, anything else (a deadline included)
// ErrCodeFetch.
func FromContext(err error, format string, args ...any) *Error {
	if errors.Is(err, context.Canceled) {
		return Cancelled(err, format, args...)
	}
	return Wrap(ErrCodeFetch, err, format, args...)
}
