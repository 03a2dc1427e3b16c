// Package metricskey describes the metrics emitted by the agent.
package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsGatewayCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_gateway_calls_succeeded",
		Help:         "stats_gateway_calls_succeeded provides total model gateway calls succeeded",
		RequiredTags: []string{"model"},
	}

	StatsGatewayCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_gateway_calls_failed",
		Help:         "stats_gateway_calls_failed provides total model gateway calls failed",
		RequiredTags: []string{"model"},
	}

	StatsGatewayTurnsSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_gateway_turns_sent",
		Help:         "stats_gateway_turns_sent provides total transcript turns sent to the model",
		RequiredTags: []string{"model"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsAgentRunsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_succeeded",
		Help:         "stats_agent_runs_succeeded provides total agent loop runs succeeded",
		RequiredTags: []string{"agent"},
	}

	StatsAgentRunsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_failed",
		Help:         "stats_agent_runs_failed provides total agent loop runs failed",
		RequiredTags: []string{"agent"},
	}

	StatsAgentRunsCeiling = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_agent_runs_ceiling",
		Help:         "stats_agent_runs_ceiling provides total agent loop runs terminated by the turn ceiling",
		RequiredTags: []string{"agent"},
	}
)

// Perf
var (
	PerfAgentRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_run",
		Help:         "perf_agent_run provides duration of an agent loop run",
		RequiredTags: []string{"agent"},
	}

	PerfGatewayCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_gateway_call",
		Help:         "perf_gateway_call provides duration of a model gateway call",
		RequiredTags: []string{"model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfEmbedding = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_embedding",
		Help:         "perf_embedding provides duration of an embedding call",
		RequiredTags: []string{"model"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentRun,
	&PerfEmbedding,
	&PerfGatewayCall,
	&PerfToolCall,
	&StatsAgentRunsCeiling,
	&StatsAgentRunsFailed,
	&StatsAgentRunsSucceeded,
	&StatsGatewayCallsFailed,
	&StatsGatewayCallsSucceeded,
	&StatsGatewayTurnsSent,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}
