package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for openmc-assist.
// It carries enough context for logging, CLI presentation and MCP mapping.
type Error struct {
	// Code is the unique error code (e.g., "ERR_202_PARSE_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Upstream, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is works against the sentinel values below.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks against the pipeline taxonomy.
var (
	ErrParse      = &Error{Code: ErrCodeParseFailed}
	ErrEmbedding  = &Error{Code: ErrCodeEmbeddingFailed}
	ErrGeneration = &Error{Code: ErrCodeGenerationFailed}
	ErrStore      = &Error{Code: ErrCodeStoreUnavailable}
)

// ParseError reports a malformed source document.
func ParseError(path string, message string, cause error) *Error {
	return New(ErrCodeParseFailed, message, cause).WithDetail("path", path)
}

// EmbeddingError reports a failed call to the embedding service.
func EmbeddingError(message string, cause error) *Error {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// GenerationError reports a failed call to the language model.
func GenerationError(message string, cause error) *Error {
	return New(ErrCodeGenerationFailed, message, cause)
}

// StoreError reports that the persistence layer is unavailable.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool { return stderrors.Is(err, ErrParse) }

// IsEmbeddingError reports whether err is, or wraps, an EmbeddingError.
func IsEmbeddingError(err error) bool { return stderrors.Is(err, ErrEmbedding) }

// IsGenerationError reports whether err is, or wraps, a GenerationError.
func IsGenerationError(err error) bool { return stderrors.Is(err, ErrGeneration) }

// IsStoreError reports whether err is, or wraps, a StoreError.
func IsStoreError(err error) bool { return stderrors.Is(err, ErrStore) }

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
