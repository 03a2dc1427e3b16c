package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/comprice/deviceagent", "tools")

// Executor invokes registered tools on behalf of the agent loop. A tool is
// invoked exactly once per call, and the outcome is always captured as a
// ToolResult: unknown tools and handler failures become Success=false results
// so the loop can keep reasoning instead of aborting.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor over the registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute resolves and invokes the requested tool, capturing the outcome.
func (e *Executor) Execute(ctx context.Context, call chatmodel.ToolCall) chatmodel.ToolResult {
	res := chatmodel.ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}

	tool, err := e.registry.Resolve(call.Name)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, call.Name)
		available := strings.Join(e.registry.Names(), ", ")
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", call.Name,
			"available_tools", available,
		)
		res.Output = fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", call.Name, available)
		return res
	}

	started := time.Now()
	out, err := tool.Call(ctx, call.Arguments)
	metricskey.PerfToolCall.MeasureSince(started, call.Name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, call.Name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"tool", call.Name,
			"err", err.Error(),
		)
		if errors.Is(err, ErrFailedUnmarshalInput) {
			res.Output = "Failed to unmarshal input, check the JSON schema and try again."
		} else {
			res.Output = fmt.Sprintf("Tool call failed: %s", err.Error())
		}
		return res
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, call.Name)
	res.Success = true
	res.Output = out
	return res
}
