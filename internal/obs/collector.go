package obs

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/maestrohq/maestro/internal/metrics"
)

const (
	maxLatencies      = 1000
	maxCoverageScores = 100
	maxAgentLatencies = 100
)

// Collector is the observatory's in-memory event store. It
// reconstructs traces from the event stream and keeps bounded windows
// of recent data for the query API. Nothing here is durable; a restart
// starts from empty.
type Collector struct {
	mu sync.Mutex

	maxTraces int
	maxEvents int

	activeTraces    map[string]*Trace
	completedTraces []*Trace
	events          []Event

	requestsTotal   int64
	requestsSuccess int64
	requestsError   int64
	latencies       []float64

	coverageScores   []float64
	gapDetections    int64
	planningAttempts int64

	agents map[string]*agentStats
}

type agentStats struct {
	invocations int64
	successes   int64
	errors      int64
	latencies   []float64
}

// AgentMetrics is the per-agent performance summary.
type AgentMetrics struct {
	Name        string  `json:"name"`
	Invocations int64   `json:"invocations"`
	SuccessRate float64 `json:"success_rate"`
	AvgLatency  float64 `json:"avg_latency_ms"`
	Status      string  `json:"status"`
}

// SystemMetrics summarizes request-level activity.
type SystemMetrics struct {
	RequestsTotal int64   `json:"requests_total"`
	SuccessRate   float64 `json:"success_rate"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	ActiveAgents  int     `json:"active_agents"`
	ActiveTraces  int     `json:"active_traces"`
}

// PlanningMetrics summarizes plan generation activity.
type PlanningMetrics struct {
	AvgCoverage      float64 `json:"avg_coverage"`
	GapDetectionRate float64 `json:"gap_detection_rate"`
	PlanningAttempts int64   `json:"total_planning_attempts"`
}

// Snapshot is the full metrics view returned by GET /metrics.
type Snapshot struct {
	Timestamp       string          `json:"timestamp"`
	SystemMetrics   SystemMetrics   `json:"system_metrics"`
	PlanningMetrics PlanningMetrics `json:"planning_metrics"`
	AgentMetrics    []AgentMetrics  `json:"agent_metrics"`
	RecentTraces    []*Trace        `json:"recent_traces"`
	RecentEvents    []Event         `json:"recent_events"`
}

// NewCollector creates a collector with the given retention limits.
func NewCollector(maxTraces, maxEvents int) *Collector {
	return &Collector{
		maxTraces:    maxTraces,
		maxEvents:    maxEvents,
		activeTraces: make(map[string]*Trace),
		agents:       make(map[string]*agentStats),
	}
}

// Ingest folds one event into the collector state.
func (c *Collector) Ingest(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.EventsIngested.WithLabelValues(ev.EventType).Inc()

	switch ev.EventType {
	case EventTraceStarted:
		c.ingestTraceStarted(ev)
	case EventTraceCompleted:
		c.ingestTraceCompleted(ev)
	case EventSpan:
		c.ingestSpan(ev)
	case EventAgentInvocation:
		c.ingestAgentInvocation(ev)
	case EventPlanGenerated:
		c.ingestPlanGenerated(ev)
	case EventAgentRegistered:
		if name, ok := ev.Data["agent_name"].(string); ok {
			if _, exists := c.agents[name]; !exists {
				c.agents[name] = &agentStats{}
			}
		}
	}

	c.events = append(c.events, ev)
	if len(c.events) > c.maxEvents {
		c.events = c.events[len(c.events)-c.maxEvents:]
	}
}

func (c *Collector) ingestTraceStarted(ev Event) {
	tr := &Trace{
		TraceID:    ev.TraceID,
		Service:    ev.Service,
		StartTime:  ev.Timestamp,
		Status:     StatusRunning,
		Attributes: map[string]any{},
		Spans:      []Span{},
	}
	for k, v := range ev.Data {
		switch k {
		case "operation":
			tr.Operation, _ = v.(string)
		case "goal":
			tr.Goal, _ = v.(string)
		default:
			tr.Attributes[k] = v
		}
	}
	c.activeTraces[ev.TraceID] = tr
}

func (c *Collector) ingestTraceCompleted(ev Event) {
	tr, ok := c.activeTraces[ev.TraceID]
	if !ok {
		return
	}
	delete(c.activeTraces, ev.TraceID)

	tr.EndTime = ev.Timestamp
	tr.DurationMs = float64(tr.EndTime.Sub(tr.StartTime)) / float64(time.Millisecond)
	tr.Status, _ = ev.Data["status"].(string)
	tr.ResultAttributes = map[string]any{}
	for k, v := range ev.Data {
		if k != "status" {
			tr.ResultAttributes[k] = v
		}
	}

	c.completedTraces = append(c.completedTraces, tr)
	if len(c.completedTraces) > c.maxTraces {
		c.completedTraces = c.completedTraces[len(c.completedTraces)-c.maxTraces:]
	}

	c.requestsTotal++
	if tr.Status == StatusSuccess {
		c.requestsSuccess++
	} else {
		c.requestsError++
	}
	c.latencies = append(c.latencies, tr.DurationMs)
	if len(c.latencies) > maxLatencies {
		c.latencies = c.latencies[len(c.latencies)-maxLatencies:]
	}
}

func (c *Collector) ingestSpan(ev Event) {
	tr, ok := c.activeTraces[ev.TraceID]
	if !ok {
		return
	}
	span := Span{Service: ev.Service, Attributes: map[string]any{}}
	for k, v := range ev.Data {
		switch k {
		case "operation":
			span.Operation, _ = v.(string)
		case "status":
			span.Status, _ = v.(string)
		case "duration_ms":
			span.DurationMs, _ = v.(float64)
		case "start_time":
			if s, ok := v.(string); ok {
				span.StartTime, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "end_time":
			if s, ok := v.(string); ok {
				span.EndTime, _ = time.Parse(time.RFC3339Nano, s)
			}
		default:
			span.Attributes[k] = v
		}
	}
	tr.Spans = append(tr.Spans, span)
}

func (c *Collector) ingestAgentInvocation(ev Event) {
	name, _ := ev.Data["agent_name"].(string)
	if name == "" {
		return
	}
	stats, ok := c.agents[name]
	if !ok {
		stats = &agentStats{}
		c.agents[name] = stats
	}
	stats.invocations++
	if success, _ := ev.Data["success"].(bool); success {
		stats.successes++
	} else {
		stats.errors++
	}
	if latency, ok := ev.Data["latency_ms"].(float64); ok {
		stats.latencies = append(stats.latencies, latency)
		if len(stats.latencies) > maxAgentLatencies {
			stats.latencies = stats.latencies[len(stats.latencies)-maxAgentLatencies:]
		}
	}
}

func (c *Collector) ingestPlanGenerated(ev Event) {
	if coverage, ok := ev.Data["coverage"].(float64); ok {
		c.coverageScores = append(c.coverageScores, coverage)
		if len(c.coverageScores) > maxCoverageScores {
			c.coverageScores = c.coverageScores[len(c.coverageScores)-maxCoverageScores:]
		}
	}
	if attempts, ok := ev.Data["attempts"].(float64); ok {
		c.planningAttempts += int64(attempts)
	}
	if gap, _ := ev.Data["gap_detected"].(bool); gap {
		c.gapDetections++
	}
}

// Metrics returns the current aggregated snapshot.
func (c *Collector) Metrics() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var successRate, gapRate float64
	if c.requestsTotal > 0 {
		successRate = float64(c.requestsSuccess) / float64(c.requestsTotal) * 100
		gapRate = float64(c.gapDetections) / float64(c.requestsTotal) * 100
	}

	agentMetrics := make([]AgentMetrics, 0, len(c.agents))
	for name, stats := range c.agents {
		am := AgentMetrics{
			Name:        name,
			Invocations: stats.invocations,
			AvgLatency:  mean(stats.latencies),
			Status:      "registered",
		}
		if stats.invocations > 0 {
			am.SuccessRate = float64(stats.successes) / float64(stats.invocations) * 100
		}
		agentMetrics = append(agentMetrics, am)
	}
	sort.Slice(agentMetrics, func(i, j int) bool { return agentMetrics[i].Name < agentMetrics[j].Name })

	return Snapshot{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SystemMetrics: SystemMetrics{
			RequestsTotal: c.requestsTotal,
			SuccessRate:   successRate,
			AvgLatencyMs:  mean(c.latencies),
			P95LatencyMs:  percentile(c.latencies, 0.95),
			ActiveAgents:  len(c.agents),
			ActiveTraces:  len(c.activeTraces),
		},
		PlanningMetrics: PlanningMetrics{
			AvgCoverage:      mean(c.coverageScores),
			GapDetectionRate: gapRate,
			PlanningAttempts: c.planningAttempts,
		},
		AgentMetrics: agentMetrics,
		RecentTraces: c.lastTraces(10),
		RecentEvents: c.lastEvents(20, ""),
	}
}

// Traces returns up to limit most recent completed traces.
func (c *Collector) Traces(limit int) []*Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTraces(limit)
}

// Trace returns one trace by ID, checking active runs first. The
// result is a deep copy; active traces keep mutating under the lock
// as spans arrive.
func (c *Collector) Trace(traceID string) (*Trace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tr, ok := c.activeTraces[traceID]; ok {
		return tr.clone(), true
	}
	for _, tr := range c.completedTraces {
		if tr.TraceID == traceID {
			return tr.clone(), true
		}
	}
	return nil, false
}

func (tr *Trace) clone() *Trace {
	cp := *tr
	cp.Spans = make([]Span, len(tr.Spans))
	copy(cp.Spans, tr.Spans)
	for i := range cp.Spans {
		cp.Spans[i].Attributes = maps.Clone(cp.Spans[i].Attributes)
	}
	cp.Attributes = maps.Clone(tr.Attributes)
	cp.ResultAttributes = maps.Clone(tr.ResultAttributes)
	return &cp
}

// Events returns up to limit most recent events, optionally filtered
// by event type.
func (c *Collector) Events(limit int, eventType string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEvents(limit, eventType)
}

func (c *Collector) lastTraces(limit int) []*Trace {
	traces := c.completedTraces
	if limit > 0 && len(traces) > limit {
		traces = traces[len(traces)-limit:]
	}
	out := make([]*Trace, len(traces))
	copy(out, traces)
	return out
}

func (c *Collector) lastEvents(limit int, eventType string) []Event {
	events := c.events
	if eventType != "" {
		filtered := make([]Event, 0, len(events))
		for _, ev := range events {
			if ev.EventType == eventType {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
