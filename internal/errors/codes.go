// Package errors provides structured error handling for pathdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Filesystem and scan I/O errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Authentication and token errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates filesystem and scan I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryAuth indicates authentication and token errors.
	CategoryAuth Category = "AUTH"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Filesystem and scan errors (200-299)
	ErrCodeMetadataResolution = "ERR_201_METADATA_RESOLUTION"
	ErrCodeScanIO             = "ERR_202_SCAN_IO"
	ErrCodeRootNotFound       = "ERR_203_ROOT_NOT_FOUND"
	ErrCodeWatchFailed        = "ERR_204_WATCH_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidArgument = "ERR_401_INVALID_ARGUMENT"
	ErrCodeQueryEmpty      = "ERR_402_QUERY_EMPTY"
	ErrCodeInvalidCount    = "ERR_403_INVALID_COUNT"
	ErrCodeInvalidOffset   = "ERR_404_INVALID_OFFSET"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeQueryFailed = "ERR_502_QUERY_FAILED"

	// Auth and token errors (600-699)
	ErrCodeAuthFailed   = "ERR_601_AUTH_FAILED"
	ErrCodeTokenIO      = "ERR_602_TOKEN_IO"
	ErrCodeUnknownUser  = "ERR_603_UNKNOWN_USER"
	ErrCodeTokenCorrupt = "ERR_604_TOKEN_CORRUPT"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_METADATA_RESOLUTION")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '6':
		return CategoryAuth
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMetadataResolution:
		// Absorbed by the pipeline as an implicit removal, never fatal.
		return SeverityWarning
	case ErrCodeRootNotFound, ErrCodeWatchFailed:
		// Fatal only to the root in question; other roots continue.
		return SeverityError
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTokenIO:
		return true
	default:
		return false
	}
}
