// Package tools defines the Tool interface, the static tool registry, and the
// executor that turns tool invocations into transcript results.
package tools

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDuplicateTool is returned when registering a tool name twice.
	ErrDuplicateTool = errors.New("tool is already registered")
	// ErrUnknownTool is returned when resolving a name absent from the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrFailedUnmarshalInput is returned by a tool when the model-supplied
	// arguments do not match the input schema.
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
)

// ITool is a tool the model may request an invocation of.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed the model context limit.
	Description() string
	// Parameters returns the JSON schema of the tool input.
	Parameters() any

	// Call executes the tool with the given JSON input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput.
	Call(context.Context, string) (string, error)
}

// Tool is a typed tool with structured input and output.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Spec is the immutable presentation of a tool to the model backend.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Parameters is the JSON schema describing the expected argument shape.
	Parameters any `json:"parameters"`
}
