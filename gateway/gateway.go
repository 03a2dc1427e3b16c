// Package gateway is the abstraction boundary between the agent loop and the
// model backend. A backend reply is deterministically classified into either a
// final answer or a tool request; a reply that fits neither shape is a
// contract violation, not something to paper over.
package gateway

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/tools"
)

var (
	// ErrBackendUnavailable is returned when the model backend cannot be reached.
	ErrBackendUnavailable = errors.New("model backend unavailable")
	// ErrBackendTimeout is returned when the model backend exceeded the deadline.
	ErrBackendTimeout = errors.New("model backend timed out")
	// ErrMalformedResponse is returned when the backend reply cannot be
	// classified into a final answer or a tool request.
	ErrMalformedResponse = errors.New("malformed model response")
)

// Gateway adapts a chat-completion backend to the agent loop.
// Implementations must be safe for concurrent use by independent loops.
type Gateway interface {
	// GetName returns the model name, used for logging and metrics.
	GetName() string
	// Complete sends the transcript and tool specs to the backend and
	// classifies the reply.
	Complete(ctx context.Context, turns []chatmodel.Turn, specs []tools.Spec) (*Response, error)
}

// Response is the classified backend reply: either a final answer or a
// request to invoke exactly one tool.
type Response struct {
	// Answer is the final natural-language answer. Valid when ToolCall is nil.
	Answer string
	// ToolCall is the requested tool invocation, when present.
	ToolCall *chatmodel.ToolCall
}

// IsToolRequest reports whether the reply asks for a tool invocation.
func (r *Response) IsToolRequest() bool {
	return r.ToolCall != nil
}

// FinalAnswer creates a final-answer response.
func FinalAnswer(text string) *Response {
	return &Response{Answer: text}
}

// ToolRequest creates a tool-request response.
func ToolRequest(call chatmodel.ToolCall) *Response {
	return &Response{ToolCall: &call}
}

// Classify maps raw backend output to a Response. A reply carrying tool calls
// is always a tool request, never silently dropped; a reply with neither tool
// calls nor text violates the backend contract.
func Classify(content string, calls []chatmodel.ToolCall) (*Response, error) {
	if len(calls) > 0 {
		return ToolRequest(calls[0]), nil
	}
	if content == "" {
		return nil, errors.WithMessage(ErrMalformedResponse, "empty reply with no tool calls")
	}
	return FinalAnswer(content), nil
}

// ClassifyTransportError maps a transport failure to the gateway error
// taxonomy, preserving the cause.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(err, ErrBackendTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Mark(err, ErrBackendTimeout)
	}
	return errors.Mark(err, ErrBackendUnavailable)
}
