// Package agent runs the tool-routing reasoning loop: it threads the
// transcript between the model gateway and the tool executor until the model
// produces a final answer or a terminal condition is reached.
package agent

import (
	"context"
	"time"

	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/gateway"
	"github.com/comprice/deviceagent/metricskey"
	"github.com/comprice/deviceagent/store"
	"github.com/comprice/deviceagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "agent")

// State is the loop controller state.
type State string

const (
	StateAwaitingModel    State = "AWAITING_MODEL"
	StateAwaitingTool     State = "AWAITING_TOOL"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
	StateMaxTurnsExceeded State = "MAX_TURNS_EXCEEDED"
)

// DefaultMaxTurns caps model round trips per run.
const DefaultMaxTurns = 6

// MaxTurnsAnswer is the terminal answer produced when the turn ceiling is
// reached before the model settles on an answer.
const MaxTurnsAnswer = "The reasoning turn limit was reached before an answer could be produced. Please try a more specific question."

// Result is the outcome of one agent run.
type Result struct {
	State      State
	Answer     string
	Transcript *chatmodel.Transcript
}

// Loop is the agent loop controller. It is safe for concurrent runs: each
// run owns its transcript, and the registry is read-only.
type Loop struct {
	name     string
	gateway  gateway.Gateway
	registry *tools.Registry
	executor *tools.Executor

	maxTurns int
	callback Callback
	store    store.TranscriptStore
}

// New creates a loop controller over the gateway and tool registry.
func New(gw gateway.Gateway, registry *tools.Registry, opts ...Option) *Loop {
	l := &Loop{
		name:     "deviceagent",
		gateway:  gw,
		registry: registry,
		executor: tools.NewExecutor(registry),
		maxTurns: DefaultMaxTurns,
		callback: NewNoopCallback(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the loop name used in logs and metrics.
func (l *Loop) Name() string {
	return l.name
}

// Run executes the reasoning loop for one user query. Gateway connectivity
// and contract errors surface to the caller with a FAILED result; tool
// failures are absorbed into the transcript and reasoning continues.
func (l *Loop) Run(ctx context.Context, query string) (*Result, error) {
	transcript := chatmodel.NewTranscript(query)
	specs := l.registry.Specs()

	l.callback.OnLoopStart(ctx, l, query)
	started := time.Now()
	defer metricskey.PerfAgentRun.MeasureSince(started, l.name)

	state := StateAwaitingModel
	for turn := 1; ; turn++ {
		if turn > l.maxTurns {
			metricskey.StatsAgentRunsCeiling.IncrCounter(1, l.name)
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", l.name,
				"status", "max_turns_exceeded",
				"max_turns", l.maxTurns,
			)
			res := &Result{
				State:      StateMaxTurnsExceeded,
				Answer:     MaxTurnsAnswer,
				Transcript: transcript,
			}
			l.finish(ctx, query, res)
			return res, nil
		}

		state = StateAwaitingModel
		resp, err := l.gateway.Complete(ctx, transcript.Turns(), specs)
		if err != nil {
			metricskey.StatsAgentRunsFailed.IncrCounter(1, l.name)
			logger.ContextKV(ctx, xlog.ERROR,
				"agent", l.name,
				"status", "gateway_failed",
				"state", state,
				"turn", turn,
				"err", err.Error(),
			)
			l.callback.OnLoopError(ctx, l, query, err)
			return &Result{
				State:      StateFailed,
				Transcript: transcript,
			}, err
		}

		if !resp.IsToolRequest() {
			if err := transcript.Append(chatmodel.AssistantTurn(resp.Answer)); err != nil {
				return nil, err
			}
			res := &Result{
				State:      StateDone,
				Answer:     resp.Answer,
				Transcript: transcript,
			}
			metricskey.StatsAgentRunsSucceeded.IncrCounter(1, l.name)
			l.finish(ctx, query, res)
			return res, nil
		}

		state = StateAwaitingTool
		call := *resp.ToolCall
		if err := transcript.Append(chatmodel.AssistantToolCallTurn(call)); err != nil {
			return nil, err
		}

		l.callback.OnToolStart(ctx, call)
		result := l.executor.Execute(ctx, call)
		l.callback.OnToolEnd(ctx, call, result)

		if err := transcript.Append(chatmodel.ToolResultTurn(result)); err != nil {
			return nil, err
		}

		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", l.name,
			"status", "tool_executed",
			"state", state,
			"turn", turn,
			"tool", call.Name,
			"success", result.Success,
		)
	}
}

// finish reports the terminal result and persists the transcript when a
// store is configured and the context carries a chat ID.
func (l *Loop) finish(ctx context.Context, query string, res *Result) {
	l.callback.OnLoopEnd(ctx, l, query, res)

	if l.store == nil {
		return
	}
	if _, err := chatmodel.GetChatID(ctx); err != nil {
		return
	}
	for _, turn := range res.Transcript.Turns() {
		if err := l.store.Add(ctx, turn); err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", l.name,
				"status", "store_add_failed",
				"err", err.Error(),
			)
			return
		}
	}
}
