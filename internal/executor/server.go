package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/plan"
)

// Server exposes the execution engine over HTTP.
type Server struct {
	engine     *Engine
	stats      *Stats
	maxRetries int
	baseDelay  time.Duration
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the executor HTTP server. The configured retry
// settings are defaults; each request may override them.
func NewServer(cfg *config.Config, engine *Engine, stats *Stats, logger *slog.Logger) *Server {
	s := &Server{
		engine:     engine,
		stats:      stats,
		maxRetries: cfg.Executor.MaxRetries,
		baseDelay:  cfg.Executor.GetBaseDelay(),
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/execute_workflow", s.handleExecuteWorkflow)
	mux.HandleFunc("/metrics", s.handleMetrics)
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
	s.logger.Info("Starting executor server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("executor server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type executeRequest struct {
	Plan       []plan.Step `json:"plan"`
	MaxRetries *int        `json:"max_retries,omitempty"`
	BaseDelay  *float64    `json:"base_delay,omitempty"` // seconds
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	maxRetries := s.maxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}
	baseDelay := s.baseDelay
	if req.BaseDelay != nil && *req.BaseDelay > 0 {
		baseDelay = time.Duration(*req.BaseDelay * float64(time.Second))
	}

	result, err := s.engine.Run(r.Context(), req.Plan, maxRetries, baseDelay)
	if err != nil {
		s.logger.Error("Workflow execution errored", "error", err)
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
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
