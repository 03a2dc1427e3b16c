package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/comprice/deviceagent/chatmodel"
	"github.com/effective-security/xlog"
)

// Callback observes loop and tool events during a run.
type Callback interface {
	OnLoopStart(ctx context.Context, loop *Loop, query string)
	OnLoopEnd(ctx context.Context, loop *Loop, query string, res *Result)
	OnLoopError(ctx context.Context, loop *Loop, query string, err error)
	OnToolStart(ctx context.Context, call chatmodel.ToolCall)
	OnToolEnd(ctx context.Context, call chatmodel.ToolCall, result chatmodel.ToolResult)
}

// NoopCallback does nothing.
type NoopCallback struct{}

func NewNoopCallback() *NoopCallback {
	return &NoopCallback{}
}

var _ Callback = (*NoopCallback)(nil)

func (l *NoopCallback) OnLoopStart(ctx context.Context, loop *Loop, query string)            {}
func (l *NoopCallback) OnLoopEnd(ctx context.Context, loop *Loop, query string, res *Result) {}
func (l *NoopCallback) OnLoopError(ctx context.Context, loop *Loop, query string, err error) {}
func (l *NoopCallback) OnToolStart(ctx context.Context, call chatmodel.ToolCall)             {}
func (l *NoopCallback) OnToolEnd(ctx context.Context, call chatmodel.ToolCall, result chatmodel.ToolResult) {
}

// PrinterCallback is a callback handler that prints to the Writer.
type PrinterCallback struct {
	Out io.Writer
}

func NewPrinterCallback(out io.Writer) *PrinterCallback {
	return &PrinterCallback{Out: out}
}

var _ Callback = (*PrinterCallback)(nil)

func (l *PrinterCallback) OnLoopStart(ctx context.Context, loop *Loop, query string) {
	fmt.Fprintf(l.Out, "Agent Start: %s\n", loop.Name())
	fmt.Fprintf(l.Out, "Query: %s\n", query)
}

func (l *PrinterCallback) OnLoopEnd(ctx context.Context, loop *Loop, query string, res *Result) {
	fmt.Fprintf(l.Out, "Agent End: %s [%s]\n", loop.Name(), res.State)
	if res.Answer != "" {
		fmt.Fprintln(l.Out, res.Answer)
	}
}

func (l *PrinterCallback) OnLoopError(ctx context.Context, loop *Loop, query string, err error) {
	fmt.Fprintf(l.Out, "Agent Error: %s: %s\n", loop.Name(), err.Error())
}

func (l *PrinterCallback) OnToolStart(ctx context.Context, call chatmodel.ToolCall) {
	fmt.Fprintf(l.Out, "Tool Start: %s\n", call.Name)
	fmt.Fprintf(l.Out, "Input: %s\n", call.Arguments)
}

func (l *PrinterCallback) OnToolEnd(ctx context.Context, call chatmodel.ToolCall, result chatmodel.ToolResult) {
	fmt.Fprintf(l.Out, "Tool End: %s\n", call.Name)
	fmt.Fprintf(l.Out, "Output: %s\n", result.Output)
}

// PackageLoggerCallback is a callback handler that prints to the logger.
type PackageLoggerCallback struct {
	logger *xlog.PackageLogger
}

func NewPackageLoggerCallback(logger *xlog.PackageLogger) *PackageLoggerCallback {
	return &PackageLoggerCallback{logger: logger}
}

var _ Callback = (*PackageLoggerCallback)(nil)

func (l *PackageLoggerCallback) OnLoopStart(ctx context.Context, loop *Loop, query string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_start",
		"agent", loop.Name(),
		"query", query,
	)
}

func (l *PackageLoggerCallback) OnLoopEnd(ctx context.Context, loop *Loop, query string, res *Result) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_end",
		"agent", loop.Name(),
		"state", res.State,
	)
	if res.Answer != "" {
		l.logger.ContextKV(ctx, xlog.DEBUG, "result", res.Answer)
	}
}

func (l *PackageLoggerCallback) OnLoopError(ctx context.Context, loop *Loop, query string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "agent_error",
		"agent", loop.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLoggerCallback) OnToolStart(ctx context.Context, call chatmodel.ToolCall) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", call.Name,
		"input", call.Arguments,
	)
}

func (l *PackageLoggerCallback) OnToolEnd(ctx context.Context, call chatmodel.ToolCall, result chatmodel.ToolResult) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", call.Name,
		"success", result.Success,
		"output", result.Output,
	)
}
