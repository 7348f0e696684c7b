// Package errors provides structured error types for pkgcompare.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the TUI and the local API
//   - Machine-readable error codes for programmatic handling
//   - User-facing notification text for per-package failures
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_*: Resource not found
//   - NETWORK_*: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// # Package Fetch Errors
//
// Every upstream failure is caught at the per-package, per-dimension
// boundary and reported as a [PackageFetchError]:
//
//	err := &errors.PackageFetchError{Package: "lodash", Dimension: "size", Err: cause}
//	fmt.Println(err.Notice()) // Failed to fetch size data for lodash
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeMalformed   Code = "MALFORMED_RESPONSE"
	ErrCodeUpstreamOff Code = "UPSTREAM_UNAVAILABLE"

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
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For *PackageFetchError, returns the notification text.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var pe *PackageFetchError
	if errors.As(err, &pe) {
		return pe.Notice()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// PackageFetchError reports a failed fetch for one package in one
// dimension ("package", "size", "download", "version", ...).
type PackageFetchError struct {
	Package   string
	Dimension string
	Err       error
}

// Error implements the error interface.
func (e *PackageFetchError) Error() string {
	if e.Err == nil {
		return e.Notice()
	}
	return fmt.Sprintf("%s: %v", e.Notice(), e.Err)
}

// Unwrap returns the underlying cause.
func (e *PackageFetchError) Unwrap() error {
	return e.Err
}

// Notice returns the short text shown to the user.
func (e *PackageFetchError) Notice() string {
	if e.Dimension == "" || e.Dimension == "package" {
		return fmt.Sprintf("Failed to fetch package %s", e.Package)
	}
	return fmt.Sprintf("Failed to fetch %s data for %s", e.Dimension, e.Package)
}
