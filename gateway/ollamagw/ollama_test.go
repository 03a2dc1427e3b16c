package ollamagw_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/gateway"
	"github.com/comprice/deviceagent/gateway/ollamagw"
	"github.com/comprice/deviceagent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpecs = []tools.Spec{
	{
		Name:        "DevicesSQLQuery",
		Description: "Query the devices table using SQL.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sql": map[string]any{"type": "string"},
			},
			"required": []string{"sql"},
		},
	},
}

func Test_Complete_FinalAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		first := msgs[0].(map[string]any)
		assert.Equal(t, "system", first["role"])
		second := msgs[1].(map[string]any)
		assert.Equal(t, "user", second["role"])

		toolDefs := req["tools"].([]any)
		require.Len(t, toolDefs, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":       "llama3.2",
			"message":     map[string]any{"role": "assistant", "content": "CPU tier groups processors by performance."},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	defer server.Close()

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)
	gw.WithSystemPrompt("You are a device shopping assistant.")

	tr := chatmodel.NewTranscript("Explain CPU tier.")
	resp, err := gw.Complete(context.Background(), tr.Turns(), testSpecs)
	require.NoError(t, err)
	assert.False(t, resp.IsToolRequest())
	assert.Equal(t, "CPU tier groups processors by performance.", resp.Answer)
}

func Test_Complete_ToolRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3.2",
			"message": map[string]any{
				"role":    "assistant",
				"content": "",
				"tool_calls": []any{
					map[string]any{
						"function": map[string]any{
							"name":      "DevicesSQLQuery",
							"arguments": map[string]any{"sql": "SELECT brand, model FROM devices WHERE brand='Samsung'"},
						},
					},
				},
			},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	defer server.Close()

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)

	tr := chatmodel.NewTranscript("List all Samsung desktops after 2021")
	resp, err := gw.Complete(context.Background(), tr.Turns(), testSpecs)
	require.NoError(t, err)
	require.True(t, resp.IsToolRequest())
	assert.Equal(t, "DevicesSQLQuery", resp.ToolCall.Name)
	assert.NotEmpty(t, resp.ToolCall.ID)
	assert.JSONEq(t, `{"sql":"SELECT brand, model FROM devices WHERE brand='Samsung'"}`, resp.ToolCall.Arguments)
}

func Test_Complete_ToolResultRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 3)
		asst := msgs[1].(map[string]any)
		assert.Equal(t, "assistant", asst["role"])
		require.NotEmpty(t, asst["tool_calls"])
		toolMsg := msgs[2].(map[string]any)
		assert.Equal(t, "tool", toolMsg["role"])
		assert.Equal(t, "Galaxy Book | 2022", toolMsg["content"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":       "llama3.2",
			"message":     map[string]any{"role": "assistant", "content": "Found one Samsung desktop."},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	defer server.Close()

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)

	tr := chatmodel.NewTranscript("List all Samsung desktops after 2021")
	call := chatmodel.ToolCall{ID: "call_1", Name: "DevicesSQLQuery", Arguments: `{"sql":"SELECT 1"}`}
	require.NoError(t, tr.Append(chatmodel.AssistantToolCallTurn(call)))
	require.NoError(t, tr.Append(chatmodel.ToolResultTurn(chatmodel.ToolResult{
		ToolCallID: "call_1",
		ToolName:   "DevicesSQLQuery",
		Success:    true,
		Output:     "Galaxy Book | 2022",
	})))

	resp, err := gw.Complete(context.Background(), tr.Turns(), testSpecs)
	require.NoError(t, err)
	assert.Equal(t, "Found one Samsung desktop.", resp.Answer)
}

func Test_Complete_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":       "llama3.2",
			"message":     map[string]any{"role": "assistant", "content": ""},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	defer server.Close()

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)

	tr := chatmodel.NewTranscript("query")
	_, err = gw.Complete(context.Background(), tr.Turns(), nil)
	assert.True(t, errors.Is(err, gateway.ErrMalformedResponse))
}

func Test_Complete_BackendUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)

	tr := chatmodel.NewTranscript("query")
	_, err = gw.Complete(context.Background(), tr.Turns(), nil)
	assert.True(t, errors.Is(err, gateway.ErrBackendUnavailable))
}

func Test_Complete_BackendTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	gw, err := ollamagw.New(server.URL, "llama3.2")
	require.NoError(t, err)
	gw.WithTimeout(50 * time.Millisecond)

	tr := chatmodel.NewTranscript("query")
	_, err = gw.Complete(context.Background(), tr.Turns(), nil)
	assert.True(t, errors.Is(err, gateway.ErrBackendTimeout))
}
