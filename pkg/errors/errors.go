// Package errors provides structured error types for the plugindex application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the builder and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages in the generated summary
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Listing or descriptor validation failures
//   - NOT_FOUND_*: Resource not found
//   - NETWORK_*: Network-related errors
//   - RENDER_*: Artifact serialization failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidListing, "entry %d: missing name", i)
//	if errors.Is(err, errors.ErrCodeInvalidListing) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (fatal, abort before any fetch)
	ErrCodeInvalidListing Code = "INVALID_LISTING"
	ErrCodeDuplicateEntry Code = "DUPLICATE_ENTRY"
	ErrCodeInvalidRepo    Code = "INVALID_REPO"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Per-entry descriptor validation errors (non-fatal)
	ErrCodeMissingField  Code = "INVALID_MISSING_FIELD"
	ErrCodeInvalidField  Code = "INVALID_FIELD"
	ErrCodeUnknownTag    Code = "INVALID_UNKNOWN_TAG"
	ErrCodeDeprecatedTag Code = "INVALID_DEPRECATED_TAG"
	ErrCodeNoDescriptor  Code = "INVALID_NO_DESCRIPTOR"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeRepoNotFound    Code = "NOT_FOUND_REPO"
	ErrCodeReleaseNotFound Code = "NOT_FOUND_RELEASE"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Run-level errors
	ErrCodeRender   Code = "RENDER_ERROR"
	ErrCodeNoOutput Code = "NO_OUTPUT"
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

// coded is implemented by error types that carry their own code, such as
// [RateLimitedError].
type coded interface{ Code() Code }

// Is reports whether err carries the given error code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// It unwraps the chain looking first for an *Error, then for any error
// type that reports its own code. Returns empty string if neither is found.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coded
	if errors.As(err, &c) {
		return c.Code()
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

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
