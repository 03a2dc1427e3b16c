package chatmodel

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrOutOfOrderTurn is returned when a turn violates the transcript ordering:
	// a tool result must directly follow the assistant turn that requested it.
	ErrOutOfOrderTurn = errors.New("tool result without a matching assistant tool call")
)

// Role is the author of a transcript turn.
type Role string

const (
	// RoleUser is a turn authored by the user.
	RoleUser Role = "user"
	// RoleAssistant is a turn authored by the model.
	RoleAssistant Role = "assistant"
	// RoleTool is a turn carrying the captured result of a tool invocation.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	// ID is the backend-assigned identifier of the call, used to correlate the result.
	ID string `json:"id"`
	// Name is the registered tool name.
	Name string `json:"name"`
	// Arguments is the JSON-encoded arguments for the tool.
	Arguments string `json:"arguments"`
}

// ToolResult is the captured outcome of a tool invocation.
// Tool failures are data, not control flow: Success=false with the failure text
// lets the model read the error and try something else.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Success    bool   `json:"success"`
	Output     string `json:"output"`
}

// Turn is a single entry in a transcript. Exactly one of the optional fields
// is set depending on the role: an assistant turn may carry a ToolCall, a tool
// turn always carries a ToolResult. Turns are immutable once appended.
type Turn struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// UserTurn creates a user turn with the given text.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

// AssistantTurn creates an assistant turn with the final answer text.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text}
}

// AssistantToolCallTurn creates an assistant turn requesting a tool invocation.
func AssistantToolCallTurn(call ToolCall) Turn {
	return Turn{Role: RoleAssistant, ToolCall: &call}
}

// ToolResultTurn creates a tool turn carrying the captured result.
func ToolResultTurn(res ToolResult) Turn {
	return Turn{Role: RoleTool, ToolResult: &res}
}

// Transcript is the append-only ordered log of turns for one agent invocation.
// It is owned by a single loop and is not safe for concurrent mutation.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript seeded with the user query.
func NewTranscript(query string) *Transcript {
	return &Transcript{
		turns: []Turn{UserTurn(query)},
	}
}

// Append adds a turn, enforcing the ordering invariant: a tool result is only
// accepted directly after an assistant turn carrying the matching tool call.
func (t *Transcript) Append(turn Turn) error {
	if turn.Role == RoleTool {
		if turn.ToolResult == nil {
			return errors.WithStack(ErrOutOfOrderTurn)
		}
		last := t.Last()
		if last == nil || last.Role != RoleAssistant || last.ToolCall == nil ||
			last.ToolCall.Name != turn.ToolResult.ToolName {
			return errors.WithStack(ErrOutOfOrderTurn)
		}
	}
	t.turns = append(t.turns, turn)
	return nil
}

// Turns returns a copy of the turns in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Last returns the most recent turn, or nil for an empty transcript.
func (t *Transcript) Last() *Turn {
	if len(t.turns) == 0 {
		return nil
	}
	return &t.turns[len(t.turns)-1]
}
