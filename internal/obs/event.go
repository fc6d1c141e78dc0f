// Package obs implements the observability boundary between the core
// services and the observatory collector. Planner and executor emit
// events through an Emitter; delivery is strictly best-effort and a
// missing or failing collector never affects planning or execution.
package obs

import "time"

// Event types emitted by the core services.
const (
	EventTraceStarted    = "trace_started"
	EventTraceCompleted  = "trace_completed"
	EventSpan            = "span"
	EventAgentInvocation = "agent_invocation"
	EventPlanGenerated   = "plan_generated"
	EventGapDetected     = "gap_detected"
	EventAgentRegistered = "agent_registered"
)

// Trace terminal statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Event is the single wire format for everything the core emits. Trace
// lifecycle, spans and domain events all travel as Events; the
// collector reconstructs traces from them.
type Event struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	Service   string         `json:"service"`
	TraceID   string         `json:"trace_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Span is one timed operation within a trace.
type Span struct {
	Operation  string         `json:"operation"`
	Service    string         `json:"service"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	DurationMs float64        `json:"duration_ms"`
	Status     string         `json:"status"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Trace is one reconstructed planning or execution run.
type Trace struct {
	TraceID          string         `json:"trace_id"`
	Service          string         `json:"service"`
	Operation        string         `json:"operation"`
	Goal             string         `json:"goal,omitempty"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time,omitzero"`
	DurationMs       float64        `json:"duration_ms,omitempty"`
	Status           string         `json:"status"`
	Attributes       map[string]any `json:"attributes,omitempty"`
	ResultAttributes map[string]any `json:"result_attributes,omitempty"`
	Spans            []Span         `json:"spans"`
}
