package executor

import (
	"sync"
	"time"
)

const maxRecentRuns = 100

// RunSummary is one finished workflow run in the local metrics view.
type RunSummary struct {
	TraceID    string  `json:"trace_id"`
	Status     string  `json:"status"`
	DurationMs float64 `json:"duration_ms"`
}

// Snapshot is the JSON shape served by the executor's metrics
// endpoint.
type Snapshot struct {
	ExecutionsTotal   int                  `json:"executions_total"`
	ExecutionsSuccess int                  `json:"executions_success"`
	ExecutionsFailed  int                  `json:"executions_failed"`
	AgentInvocations  map[string]int       `json:"agent_invocations"`
	AgentLatencies    map[string][]float64 `json:"agent_latencies"`
	Traces            []RunSummary         `json:"traces"`
}

// Stats keeps executor-local counters, independent of the observatory.
// The executor stays inspectable even when no collector is running.
type Stats struct {
	mu          sync.Mutex
	total       int
	success     int
	failed      int
	invocations map[string]int
	latencies   map[string][]float64
	runs        []RunSummary
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{
		invocations: make(map[string]int),
		latencies:   make(map[string][]float64),
	}
}

// RecordStep counts one agent invocation and its latency.
func (s *Stats) RecordStep(agent string, latencyMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invocations[agent]++
	s.latencies[agent] = append(s.latencies[agent], latencyMs)
	if len(s.latencies[agent]) > 1000 {
		s.latencies[agent] = s.latencies[agent][1:]
	}
}

// RecordExecution counts one finished run.
func (s *Stats) RecordExecution(traceID, status string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if status == StatusSuccess {
		s.success++
	} else {
		s.failed++
	}
	s.runs = append(s.runs, RunSummary{
		TraceID:    traceID,
		Status:     status,
		DurationMs: float64(duration) / float64(time.Millisecond),
	})
	if len(s.runs) > maxRecentRuns {
		s.runs = s.runs[1:]
	}
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	invocations := make(map[string]int, len(s.invocations))
	for k, v := range s.invocations {
		invocations[k] = v
	}
	latencies := make(map[string][]float64, len(s.latencies))
	for k, v := range s.latencies {
		latencies[k] = append([]float64(nil), v...)
	}
	runs := append([]RunSummary(nil), s.runs...)

	return Snapshot{
		ExecutionsTotal:   s.total,
		ExecutionsSuccess: s.success,
		ExecutionsFailed:  s.failed,
		AgentInvocations:  invocations,
		AgentLatencies:    latencies,
		Traces:            runs,
	}
}
