package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/metrics"
	"github.com/maestrohq/maestro/internal/obs"
	"github.com/maestrohq/maestro/internal/plan"
)

// Server exposes the planner over HTTP.
type Server struct {
	generator  *Generator
	emitter    *obs.Emitter
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the planner HTTP server.
func NewServer(cfg *config.Config, generator *Generator, emitter *obs.Emitter, logger *slog.Logger) *Server {
	s := &Server{
		generator: generator,
		emitter:   emitter,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/plan", s.handlePlan)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics/prometheus", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("Starting planner server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("planner server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type planRequest struct {
	Goal string `json:"goal"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Goal == "" {
		httpError(w, http.StatusBadRequest, "goal is required")
		return
	}

	traceID := s.emitter.StartTrace("plan_workflow", map[string]any{"goal": req.Goal})
	start := time.Now()

	result, err := s.generator.GeneratePlan(r.Context(), req.Goal)
	if err != nil {
		s.emitter.EndTrace(traceID, obs.StatusError, map[string]any{"error": err.Error()})
		metrics.PlanRequests.WithLabelValues(plan.StatusError).Inc()
		s.logger.Error("Plan generation failed", "goal", req.Goal, "error", err)
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	gapDetected := result.Status == plan.StatusPartial
	s.emitter.LogEvent(obs.EventPlanGenerated, traceID, map[string]any{
		"coverage":     result.Coverage,
		"attempts":     result.AlternativeApproachesTried,
		"gap_detected": gapDetected,
	})
	for _, gap := range result.Gaps {
		metrics.GapDetections.Inc()
		s.emitter.LogEvent(obs.EventGapDetected, traceID, map[string]any{
			"missing_capability": gap.RequiredCapability,
			"suggested_agent":    gap.SuggestedAgentCard,
		})
	}

	metrics.PlanRequests.WithLabelValues(result.Status).Inc()
	metrics.PlanCoverage.Observe(result.Coverage)
	s.emitter.EndTrace(traceID, obs.StatusSuccess, map[string]any{
		"coverage":     result.Coverage,
		"gap_detected": gapDetected,
		"duration_ms":  float64(time.Since(start)) / float64(time.Millisecond),
	})

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
