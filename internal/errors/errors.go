package errors

import (
	"fmt"
)

// PathdexError is the structured error type for pathdex.
// It provides context for error handling, logging, and RPC error mapping.
type PathdexError struct {
	// Code is the unique error code (e.g., "ERR_601_AUTH_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Auth, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *PathdexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PathdexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PathdexError.
func (e *PathdexError) Is(target error) bool {
	if t, ok := target.(*PathdexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PathdexError) WithDetail(key, value string) *PathdexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new PathdexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PathdexError {
	return &PathdexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PathdexError from an existing error.
// The error's message becomes the PathdexError message.
func Wrap(code string, err error) *PathdexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// AuthError creates an authentication failure.
// The message deliberately never distinguishes an unknown user from a
// wrong secret, so callers cannot enumerate users.
func AuthError() *PathdexError {
	return New(ErrCodeAuthFailed, "authentication failed", nil)
}

// InvalidArgumentError creates a validation error for a bad query argument.
func InvalidArgumentError(message string) *PathdexError {
	return New(ErrCodeInvalidArgument, message, nil)
}

// MetadataError creates a metadata resolution error for a single path.
func MetadataError(path string, cause error) *PathdexError {
	return New(ErrCodeMetadataResolution, fmt.Sprintf("resolve metadata for %s", path), cause).
		WithDetail("path", path)
}

// ScanError creates a root enumeration error.
func ScanError(root string, cause error) *PathdexError {
	return New(ErrCodeScanIO, fmt.Sprintf("scan root %s", root), cause).
		WithDetail("root", root)
}

// TokenIOError creates a token file I/O error. Retryable by the caller.
func TokenIOError(message string, cause error) *PathdexError {
	return New(ErrCodeTokenIO, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PathdexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PathdexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a PathdexError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PathdexError); ok {
		return pe.Retryable
	}
	return false
}

// IsAuthFailure reports whether the error is an authentication failure.
func IsAuthFailure(err error) bool {
	if pe, ok := err.(*PathdexError); ok {
		return pe.Code == ErrCodeAuthFailed
	}
	return false
}

// GetCode extracts the error code from a PathdexError.
// Returns empty string if not a PathdexError.
func GetCode(err error) string {
	if pe, ok := err.(*PathdexError); ok {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PathdexError.
// Returns empty string if not a PathdexError.
func GetCategory(err error) Category {
	if pe, ok := err.(*PathdexError); ok {
		return pe.Category
	}
	return ""
}
