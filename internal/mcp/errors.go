// Package mcp serves the assistant over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// MCP error codes. Negative values above -32100 are server defined.
const (
	ErrCodeCollectionUnavailable = -32001
	ErrCodeEmbeddingFailed       = -32002
	ErrCodeTimeout               = -32003
	ErrCodeGenerationFailed      = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	var e *amerrors.Error
	if !errors.As(err, &e) {
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}

	message := e.Message
	if e.Suggestion != "" {
		message = e.Message + " " + e.Suggestion
	}

	switch {
	case e.Code == amerrors.ErrCodeEmbeddingFailed:
		return &MCPError{Code: ErrCodeEmbeddingFailed, Message: message}
	case e.Code == amerrors.ErrCodeGenerationFailed:
		return &MCPError{Code: ErrCodeGenerationFailed, Message: message}
	case e.Code == amerrors.ErrCodeStoreUnavailable:
		return &MCPError{Code: ErrCodeCollectionUnavailable, Message: message}
	case e.Category == amerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}
