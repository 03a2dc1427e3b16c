package chatmodel_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Transcript_Ordering(t *testing.T) {
	tr := chatmodel.NewTranscript("List all Samsung desktops after 2021")
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, chatmodel.RoleUser, tr.Last().Role)

	// a tool result may not be appended before the assistant requested it
	err := tr.Append(chatmodel.ToolResultTurn(chatmodel.ToolResult{
		ToolName: "DevicesSQLQuery",
		Success:  true,
		Output:   "rows",
	}))
	assert.True(t, errors.Is(err, chatmodel.ErrOutOfOrderTurn))
	assert.Equal(t, 1, tr.Len())

	call := chatmodel.ToolCall{
		ID:        "call_1",
		Name:      "DevicesSQLQuery",
		Arguments: `{"sql":"SELECT brand, model FROM devices WHERE brand='Samsung'"}`,
	}
	require.NoError(t, tr.Append(chatmodel.AssistantToolCallTurn(call)))

	// mismatched tool name is still out of order
	err = tr.Append(chatmodel.ToolResultTurn(chatmodel.ToolResult{
		ToolName: "KnowledgeBaseRetriever",
		Success:  true,
	}))
	assert.True(t, errors.Is(err, chatmodel.ErrOutOfOrderTurn))

	require.NoError(t, tr.Append(chatmodel.ToolResultTurn(chatmodel.ToolResult{
		ToolCallID: "call_1",
		ToolName:   "DevicesSQLQuery",
		Success:    true,
		Output:     "Galaxy Book | 2022",
	})))
	require.NoError(t, tr.Append(chatmodel.AssistantTurn("Found one Samsung desktop.")))

	turns := tr.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, chatmodel.RoleUser, turns[0].Role)
	assert.Equal(t, chatmodel.RoleAssistant, turns[1].Role)
	require.NotNil(t, turns[1].ToolCall)
	assert.Equal(t, "DevicesSQLQuery", turns[1].ToolCall.Name)
	assert.Equal(t, chatmodel.RoleTool, turns[2].Role)
	require.NotNil(t, turns[2].ToolResult)
	assert.True(t, turns[2].ToolResult.Success)
	assert.Equal(t, chatmodel.RoleAssistant, turns[3].Role)

	// Turns returns a copy, the transcript itself stays append-only
	turns[0].Content = "mutated"
	assert.Equal(t, "List all Samsung desktops after 2021", tr.Turns()[0].Content)
}

func Test_Transcript_ToolResultWithoutPayload(t *testing.T) {
	tr := chatmodel.NewTranscript("query")
	err := tr.Append(chatmodel.Turn{Role: chatmodel.RoleTool})
	assert.True(t, errors.Is(err, chatmodel.ErrOutOfOrderTurn))
}

func Test_ChatContext(t *testing.T) {
	ctx := context.Background()

	_, err := chatmodel.GetChatID(ctx)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidChatContext))
	assert.Nil(t, chatmodel.GetChatContext(ctx))

	chatCtx := chatmodel.NewChatContext("chat1")
	ctx = chatmodel.WithChatContext(ctx, chatCtx)

	id, err := chatmodel.GetChatID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat1", id)

	chatCtx.SetMetadata("key", "value")
	v, ok := chatCtx.GetMetadata("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	// generated IDs are unique and non-empty
	c1 := chatmodel.NewChatContext("")
	c2 := chatmodel.NewChatContext("")
	assert.NotEmpty(t, c1.GetChatID())
	assert.NotEqual(t, c1.GetChatID(), c2.GetChatID())
}
