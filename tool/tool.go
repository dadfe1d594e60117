// Package tool implements the function / tool calling helpers that let
// callers expose structured capabilities (APIs, computations, side-effects)
// to a model with schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/pedi/genkit-plugins/internal/util"
	"github.com/pedi/genkit-plugins/model"
)

// Tool pairs a declarative definition (exposed to the model) with an
// executable implementation (dispatched on tool requests).
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be thread-safe if used concurrently
type Tool interface {
	// Definition returns the declaration sent to the model provider.
	Definition() model.ToolDefinition

	// Call executes the tool. Arguments have been parsed from the model's
	// tool-request input and validated against the tool's schema.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Definitions collects the declarations of the given tools, in order.
func Definitions(tools ...Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.Definition()
	}
	return defs
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
