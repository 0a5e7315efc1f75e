// Package errors provides structured error types for kintree.
//
// The visualization core never aborts a render because of a bad request; it
// reports failures as values. This package gives those values a shape:
//   - Machine-readable codes for programmatic handling (HTTP status mapping, CLI exit text)
//   - User-friendly messages without the code prefix
//   - Wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Referenced node or resource does not exist
//   - CAPACITY_EXCEEDED: A bounded collection is full
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeNotFound, "node %q not in tree", id)
//	if errors.Is(err, errors.ErrCodeNodeNotFound) {
//	    // Handle missing target
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidHighlight Code = "INVALID_HIGHLIGHT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidTree      Code = "INVALID_TREE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	// Bounded collections
	ErrCodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// A *CapacityError matches ErrCodeCapacityExceeded.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CapacityError reports that a bounded collection rejected an insertion.
// Callers decide whether to evict an existing entry or inform the user.
type CapacityError struct {
	Limit int // Configured capacity
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("capacity exceeded: at most %d entries", e.Limit)
	}
	return "capacity exceeded"
}

// Code returns the error code for this error type.
func (e *CapacityError) Code() Code {
	return ErrCodeCapacityExceeded
}
