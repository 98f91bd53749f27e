// Package metrics defines the Prometheus collectors shared by the chat
// orchestrator, the tool catalog, and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns counts completed chat turns by outcome
	// (chat, tool_call, clarification, llm_error, error).
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskpilot",
		Name:      "chat_turns_total",
		Help:      "Total number of chat turns processed.",
	}, []string{"outcome"})

	// ToolExecutions counts tool executions by tool name and envelope status.
	ToolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskpilot",
		Name:      "tool_executions_total",
		Help:      "Total number of tool executions.",
	}, []string{"tool", "status"})

	// LLMRequests counts upstream LLM requests by kind (chat, chat_with_tools)
	// and status (ok, error).
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskpilot",
		Name:      "llm_requests_total",
		Help:      "Total number of LLM gateway requests.",
	}, []string{"kind", "status"})

	// TurnDuration observes wall-clock duration of whole chat turns.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskpilot",
		Name:      "turn_duration_seconds",
		Help:      "Duration of chat turns in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
