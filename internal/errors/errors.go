// Package errors provides error types and handling for the API codebase auditor.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// FileRead represents an unreadable file (permissions, I/O).
	FileRead
	// Decode represents undecodable file content (binary, bad encoding).
	Decode
	// Pattern represents a route-like construct that could not be fully parsed.
	Pattern
	// BadRoot represents an invalid analysis root path.
	BadRoot
	// Store represents report-store persistence errors.
	Store
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case FileRead:
		return "file_read"
	case Decode:
		return "decode"
	case Pattern:
		return "pattern"
	case BadRoot:
		return "bad_root"
	case Store:
		return "store"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsSkippable reports whether errors of this type are recovered locally:
// the offending file or construct is dropped and the run continues.
func (t ErrorType) IsSkippable() bool {
	switch t {
	case FileRead, Decode, Pattern:
		return true
	default:
		return false
	}
}

// ScanError represents a categorized analysis error.
type ScanError struct {
	Type      ErrorType
	Path      string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewScanError creates a new ScanError.
func NewScanError(errType ErrorType, path, operation, message string, cause error) *ScanError {
	return &ScanError{
		Type:      errType,
		Path:      path,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewFileReadError creates a file-read error.
func NewFileReadError(path string, cause error) *ScanError {
	return NewScanError(FileRead, path, "read", "file unreadable", cause)
}

// NewDecodeError creates a decode error.
func NewDecodeError(path string, cause error) *ScanError {
	return NewScanError(Decode, path, "decode", "file content not decodable as text", cause)
}

// NewPatternError creates a pattern-extraction error.
func NewPatternError(path string, line int, raw string) *ScanError {
	return NewScanError(Pattern, path, "extract",
		fmt.Sprintf("route construct at line %d not parseable: %q", line, raw), nil)
}

// NewBadRootError creates an invalid-root error.
func NewBadRootError(path string, cause error) *ScanError {
	return NewScanError(BadRoot, path, "open_root", "analysis root not usable", cause)
}

// NewStoreError creates a report-store error.
func NewStoreError(operation string, cause error) *ScanError {
	return NewScanError(Store, "", operation, "report store operation failed", cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(path, operation string) *ScanError {
	return NewScanError(Cancelled, path, operation, "operation cancelled", nil)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, path string) *ScanError {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewBadRootError(path, err)
	case errors.Is(err, fs.ErrPermission):
		return NewFileReadError(path, err)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return NewFileReadError(path, err)
	}

	return NewScanError(Unknown, path, "scan", err.Error(), err)
}

// IsSkippable reports whether an error should skip the current file
// rather than abort the run.
func IsSkippable(err error) bool {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type.IsSkippable()
	}
	return false
}

// GetErrorType extracts the error type, or Unknown.
func GetErrorType(err error) ErrorType {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type
	}
	return Unknown
}
