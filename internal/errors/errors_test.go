package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Error wrapping preserves original error
func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("connection reset")

	// When: wrapping it as an embedding failure
	err := EmbeddingError("embed chunk 3", originalErr)

	// Then: unwrapping returns the original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"parse", ParseError("a.rst", "bad title", nil), "[ERR_202_PARSE_FAILED] bad title"},
		{"embedding", EmbeddingError("quota exceeded", nil), "[ERR_301_EMBEDDING_FAILED] quota exceeded"},
		{"generation", GenerationError("model overloaded", nil), "[ERR_302_GENERATION_FAILED] model overloaded"},
		{"store", StoreError("disk gone", nil), "[ERR_203_STORE_UNAVAILABLE] disk gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

// TS02: Taxonomy predicates see through fmt.Errorf wrapping
func TestPredicates_MatchThroughWrapping(t *testing.T) {
	// Given: taxonomy errors wrapped with extra context
	parse := fmt.Errorf("ingest: %w", ParseError("x.rst", "broken", nil))
	embed := fmt.Errorf("retrieve: %w", EmbeddingError("down", nil))
	gen := fmt.Errorf("answer: %w", GenerationError("down", nil))
	store := fmt.Errorf("open: %w", StoreError("locked", nil))

	// Then: each predicate matches only its own kind
	assert.True(t, IsParseError(parse))
	assert.False(t, IsParseError(embed))
	assert.True(t, IsEmbeddingError(embed))
	assert.False(t, IsEmbeddingError(gen))
	assert.True(t, IsGenerationError(gen))
	assert.True(t, IsStoreError(store))
	assert.False(t, IsStoreError(errors.New("plain")))
}

func TestCategoryAndSeverity_DerivedFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeMissingAPIKey, CategoryConfig, SeverityFatal},
		{ErrCodeParseFailed, CategoryIO, SeverityWarning},
		{ErrCodeStoreUnavailable, CategoryIO, SeverityFatal},
		{ErrCodeEmbeddingFailed, CategoryUpstream, SeverityError},
		{ErrCodeQueryEmpty, CategoryValidation, SeverityError},
		{ErrCodeInternal, CategoryInternal, SeverityError},
		{"BAD", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", StoreError("gone", nil))))
	assert.False(t, IsFatal(ParseError("a.rst", "bad", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeParseFailed, GetCode(fmt.Errorf("x: %w", ParseError("p", "m", nil))))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with a suggestion
	err := New(ErrCodeMissingAPIKey, "GEMINI_API_KEY is not set", nil).
		WithSuggestion("export GEMINI_API_KEY or use --provider static")

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: message, hint and code are present
	assert.Contains(t, out, "Error: GEMINI_API_KEY is not set")
	assert.Contains(t, out, "Hint: export GEMINI_API_KEY")
	assert.Contains(t, out, "Code: ERR_103_MISSING_API_KEY")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Empty(t, FormatForCLI(nil))
}

func TestLogAttrs_SortedDetails(t *testing.T) {
	// Given: an error with details
	err := ParseError("docs/a.rst", "bad", errors.New("line 3")).WithDetail("line", "3")

	// When: converting to log attributes
	attrs := LogAttrs(err)

	// Then: code, message, category, cause and sorted details are present
	require.Len(t, attrs, 6)
	assert.Equal(t, slog.String("error_code", ErrCodeParseFailed), attrs[0])
	assert.Equal(t, slog.String("cause", "line 3"), attrs[3])
	assert.Equal(t, slog.String("detail_line", "3"), attrs[4])
	assert.Equal(t, slog.String("detail_path", "docs/a.rst"), attrs[5])
}
