package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"embedding", amerrors.EmbeddingError("quota exceeded", nil), ErrCodeEmbeddingFailed, "quota exceeded"},
		{"generation", amerrors.GenerationError("blocked", nil), ErrCodeGenerationFailed, "blocked"},
		{"store", amerrors.StoreError("database locked", nil), ErrCodeCollectionUnavailable, "database locked"},
		{"validation", amerrors.ValidationError("top_k must be at least 1", nil), ErrCodeInvalidParams, "top_k must be at least 1"},
		{"empty query", amerrors.New(amerrors.ErrCodeQueryEmpty, "query must not be empty", nil), ErrCodeInvalidParams, "query must not be empty"},
		{"suggestion appended", amerrors.New(amerrors.ErrCodeMissingAPIKey, "no key", nil).WithSuggestion("Set GEMINI_API_KEY."), ErrCodeInternalError, "no key Set GEMINI_API_KEY."},
		{"wrapped", fmt.Errorf("outer: %w", amerrors.EmbeddingError("inner", nil)), ErrCodeEmbeddingFailed, "inner"},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout, "Request timed out."},
		{"canceled", context.Canceled, ErrCodeTimeout, "Request was canceled."},
		{"plain", errors.New("boom"), ErrCodeInternalError, "Internal server error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.msg, got.Message)
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.Nil(t, MapError(nil))

	orig := NewInvalidParamsError("bad")
	assert.Same(t, orig, MapError(fmt.Errorf("wrap: %w", orig)))
}

func TestMCPError_Error(t *testing.T) {
	assert.Equal(t, "MCP error -32601: Tool 'x' not found.", NewMethodNotFoundError("x").Error())
}
