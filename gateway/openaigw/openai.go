// Package openaigw implements the model gateway over an OpenAI-compatible
// chat-completions endpoint, such as Ollama's /v1 surface.
package openaigw

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/gateway"
	"github.com/comprice/deviceagent/metricskey"
	"github.com/comprice/deviceagent/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "openaigw")

// Gateway adapts an OpenAI-compatible chat completions backend.
type Gateway struct {
	client       openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a gateway for the given endpoint and model. The token may be
// empty for local backends that do not authenticate.
func New(baseURL, token, model string) *Gateway {
	opts := []option.RequestOption{}
	if token != "" {
		opts = append(opts, option.WithAPIKey(token))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Gateway{
		client: openai.NewClient(opts...),
		model:  model,
	}
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

// GetName returns the model name.
func (g *Gateway) GetName() string {
	return g.model
}

// Complete sends the transcript to the backend and classifies the reply.
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

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(g.model),
		Messages: g.convertTurns(turns),
		Tools:    toolDefs,
	}

	metricskey.StatsGatewayTurnsSent.IncrCounter(float64(len(turns)), g.model)
	started := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	metricskey.PerfGatewayCall.MeasureSince(started, g.model)
	if err != nil {
		metricskey.StatsGatewayCallsFailed.IncrCounter(1, g.model)
		return nil, gateway.ClassifyTransportError(err)
	}
	metricskey.StatsGatewayCallsSucceeded.IncrCounter(1, g.model)

	if len(resp.Choices) == 0 {
		return nil, errors.WithMessage(gateway.ErrMalformedResponse, "reply with no choices")
	}
	msg := resp.Choices[0].Message

	calls := make([]chatmodel.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, chatmodel.ToolCall{
			ID:        values.StringsCoalesce(tc.ID, uuid.NewString()),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if len(calls) > 1 {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "extra_tool_calls_ignored",
			"model", g.model,
			"count", len(calls)-1,
		)
	}

	return gateway.Classify(msg.Content, calls)
}

func (g *Gateway) convertTurns(turns []chatmodel.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if g.systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(g.systemPrompt))
	}

	for _, turn := range turns {
		switch turn.Role {
		case chatmodel.RoleUser:
			msgs = append(msgs, openai.UserMessage(turn.Content))
		case chatmodel.RoleAssistant:
			if turn.ToolCall == nil {
				msgs = append(msgs, openai.AssistantMessage(turn.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: []openai.ChatCompletionMessageToolCallUnionParam{
					{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: turn.ToolCall.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      turn.ToolCall.Name,
								Arguments: turn.ToolCall.Arguments,
							},
						},
					},
				},
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case chatmodel.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			msgs = append(msgs, openai.ToolMessage(turn.ToolResult.Output, turn.ToolResult.ToolCallID))
		}
	}
	return msgs
}

// convertSpecs converts tool specs through JSON into the map-shaped function
// parameters the SDK expects.
func convertSpecs(specs []tools.Spec) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	toolDefs := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		bs, err := json.Marshal(spec.Parameters)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal parameters for tool %s", spec.Name)
		}
		var params map[string]any
		if err := json.Unmarshal(bs, &params); err != nil {
			return nil, errors.Wrapf(err, "failed to convert parameters for tool %s", spec.Name)
		}
		toolDefs = append(toolDefs, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  shared.FunctionParameters(params),
		}))
	}
	return toolDefs, nil
}
