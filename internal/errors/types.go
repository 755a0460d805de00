// Package errors defines the fatal error kinds of a validation run.
//
// Everything a rule can detect about a package or a template becomes a
// diagnostics.Finding. Only failures that make a run impossible surface as
// errors: the catalog document could not be found, could not be decoded, or
// the configuration is unusable.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeMetadataNotFound = "ERR_METADATA_NOT_FOUND"
	ErrCodeMetadataParse    = "ERR_METADATA_PARSE"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// Sentinels for errors.Is comparisons. Only Type and Code take part in the
// comparison, so any RegistryError of the same kind matches.
var (
	ErrMetadataNotFound = &RegistryError{Type: ErrorTypeNotFound, Code: ErrCodeMetadataNotFound}
	ErrMetadataParse    = &RegistryError{Type: ErrorTypeParse, Code: ErrCodeMetadataParse}
	ErrConfigInvalid    = &RegistryError{Type: ErrorTypeConfig, Code: ErrCodeConfigInvalid}
)

// RegistryError is a structured error type with context.
type RegistryError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *RegistryError) Is(target error) bool {
	var t *RegistryError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *RegistryError) WithLocation(filePath string, line, column int) *RegistryError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// NewNotFoundError reports a catalog document that could not be located.
func NewNotFoundError(path string, cause error) *RegistryError {
	return &RegistryError{
		Type:     ErrorTypeNotFound,
		Code:     ErrCodeMetadataNotFound,
		Message:  "metadata document not found",
		Cause:    cause,
		FilePath: path,
	}
}

// NewParseError reports a catalog document that could not be decoded.
func NewParseError(path, message string, cause error) *RegistryError {
	return &RegistryError{
		Type:     ErrorTypeParse,
		Code:     ErrCodeMetadataParse,
		Message:  message,
		Cause:    cause,
		FilePath: path,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *RegistryError {
	return &RegistryError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *RegistryError {
	return &RegistryError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error reports a missing catalog document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMetadataNotFound)
}

// IsParseError checks if an error reports a malformed catalog document.
func IsParseError(err error) bool {
	return errors.Is(err, ErrMetadataParse)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigInvalid)
}

// ErrValidationFailed is returned by the CLI when the verdict is fail.
var ErrValidationFailed = errors.New("validation failed")

// Exit statuses for the CLI wrapper.
const (
	ExitOK         = 0
	ExitFailed     = 1
	ExitNotFound   = 2
	ExitParseError = 3
	ExitConfig     = 4
)

// ExitCode maps a run error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsNotFound(err):
		return ExitNotFound
	case IsParseError(err):
		return ExitParseError
	case IsConfigError(err):
		return ExitConfig
	default:
		return ExitFailed
	}
}
