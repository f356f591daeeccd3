package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dennissolver/LaunchReady-sub000/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returned as tool content so the agent sees the details instead of a bare
// protocol failure.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the agent can act on (bad arguments, unknown project).
// System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// ErrorResultFor maps actionable service errors to tool results.
// Returns nil for errors that should surface as Go errors.
func ErrorResultFor(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("project_not_found", "project not found")
	case errors.Is(err, apperrors.ErrForbidden):
		return NewErrorResult("forbidden", "access to this project is not allowed")
	}
	return AsToolAccessResult(err)
}

// IsInputError reports whether err was caused by the caller rather than
// the server. Input errors are logged at DEBUG.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	var accessErr *ToolAccessError
	return errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.As(err, &accessErr)
}
