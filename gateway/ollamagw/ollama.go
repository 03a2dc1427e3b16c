// Package ollamagw implements the model gateway over the native Ollama chat API.
package ollamagw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/gateway"
	"github.com/comprice/deviceagent/metricskey"
	"github.com/comprice/deviceagent/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "ollamagw")

// Gateway adapts the Ollama /api/chat endpoint.
type Gateway struct {
	client       *api.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	options      map[string]any
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates an Ollama gateway for the given base URL and model.
func New(baseURL, model string) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid base URL: %s", baseURL)
	}
	return &Gateway{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
	}, nil
}

// WithSystemPrompt sets the system prompt prepended to every completion.
func (g *Gateway) WithSystemPrompt(prompt string) *Gateway {
	g.systemPrompt = prompt
	return g
}

// WithTimeout sets the per-call deadline. Zero means the caller's context rules.
func (g *Gateway) WithTimeout(timeout time.Duration) *Gateway {
	g.timeout = timeout
	return g
}

// WithOptions sets model options (temperature etc.) passed on every request.
func (g *Gateway) WithOptions(options map[string]any) *Gateway {
	g.options = options
	return g
}

// GetName returns the model name.
func (g *Gateway) GetName() string {
	return g.model
}

// Complete sends the transcript to Ollama and classifies the reply.
func (g *Gateway) Complete(ctx context.Context, turns []chatmodel.Turn, specs []tools.Spec) (*gateway.Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	toolDefs, err := convertSpecs(specs)
	if err != nil {
		return nil, err
	}

	stream := false
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: g.convertTurns(turns),
		Tools:    toolDefs,
		Options:  g.options,
		Stream:   &stream,
	}

	metricskey.StatsGatewayTurnsSent.IncrCounter(float64(len(turns)), g.model)
	started := time.Now()

	var last api.ChatResponse
	err = g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		last = resp
		return nil
	})
	metricskey.PerfGatewayCall.MeasureSince(started, g.model)
	if err != nil {
		metricskey.StatsGatewayCallsFailed.IncrCounter(1, g.model)
		return nil, gateway.ClassifyTransportError(err)
	}
	metricskey.StatsGatewayCallsSucceeded.IncrCounter(1, g.model)

	calls := make([]chatmodel.ToolCall, 0, len(last.Message.ToolCalls))
	for _, tc := range last.Message.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			return nil, errors.WithMessagef(gateway.ErrMalformedResponse, "tool call %s: unencodable arguments", tc.Function.Name)
		}
		calls = append(calls, chatmodel.ToolCall{
			ID:        values.StringsCoalesce(tc.ID, uuid.NewString()),
			Name:      tc.Function.Name,
			Arguments: string(args),
		})
	}
	if len(calls) > 1 {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "extra_tool_calls_ignored",
			"model", g.model,
			"count", len(calls)-1,
		)
	}

	return gateway.Classify(last.Message.Content, calls)
}

func (g *Gateway) convertTurns(turns []chatmodel.Turn) []api.Message {
	msgs := make([]api.Message, 0, len(turns)+1)
	if g.systemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: g.systemPrompt})
	}

	for _, turn := range turns {
		switch turn.Role {
		case chatmodel.RoleUser:
			msgs = append(msgs, api.Message{Role: "user", Content: turn.Content})
		case chatmodel.RoleAssistant:
			msg := api.Message{Role: "assistant", Content: turn.Content}
			if turn.ToolCall != nil {
				var args api.ToolCallFunctionArguments
				if err := json.Unmarshal([]byte(turn.ToolCall.Arguments), &args); err != nil {
					logger.KV(xlog.WARNING,
						"status", "failed_to_unmarshal_tool_arguments",
						"tool", turn.ToolCall.Name,
						"err", err.Error(),
					)
				}
				msg.ToolCalls = []api.ToolCall{
					{
						ID: turn.ToolCall.ID,
						Function: api.ToolCallFunction{
							Name:      turn.ToolCall.Name,
							Arguments: args,
						},
					},
				}
			}
			msgs = append(msgs, msg)
		case chatmodel.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			msgs = append(msgs, api.Message{
				Role:       "tool",
				Content:    turn.ToolResult.Output,
				ToolCallID: turn.ToolResult.ToolCallID,
			})
		}
	}
	return msgs
}

type wireFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

// convertSpecs converts tool specs through JSON into api.Tools, avoiding a
// field-by-field mapping onto the SDK's typed parameters struct.
func convertSpecs(specs []tools.Spec) (api.Tools, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	wire := make([]wireTool, 0, len(specs))
	for _, spec := range specs {
		wire = append(wire, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	bs, err := json.Marshal(wire)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tool specs")
	}
	var toolDefs api.Tools
	if err := json.Unmarshal(bs, &toolDefs); err != nil {
		return nil, errors.Wrap(err, "failed to convert tool specs")
	}
	return toolDefs, nil
}
