package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlanRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maestro_plan_requests_total",
			Help: "Total number of plan generation requests",
		},
		[]string{"status"},
	)

	PlanCoverage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maestro_plan_coverage",
			Help:    "Coverage of selected plan candidates",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	GapDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maestro_gap_detections_total",
			Help: "Total number of capability gaps detected during planning",
		},
	)

	OracleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "maestro_oracle_latency_seconds",
			Help: "Reasoning oracle call latency in seconds",
		},
	)

	AgentInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maestro_agent_invocations_total",
			Help: "Total number of capability invocations by the executor",
		},
		[]string{"agent", "status"},
	)

	StepLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "maestro_step_latency_seconds",
			Help: "Workflow step latency in seconds",
		},
		[]string{"agent"},
	)

	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maestro_executions_total",
			Help: "Total number of workflow executions by terminal status",
		},
		[]string{"status"},
	)

	RegisteredAgents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "maestro_registered_agents",
			Help: "Number of capability cards currently registered",
		},
	)

	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maestro_observatory_events_total",
			Help: "Total number of observability events ingested",
		},
		[]string{"event_type"},
	)
)
