package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/metrics"
	"github.com/maestrohq/maestro/internal/obs"
)

// Server exposes the registry over HTTP.
type Server struct {
	store      *Store
	prober     *Prober
	emitter    *obs.Emitter
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the registry HTTP server. prober may be nil when
// liveness probing is disabled.
func NewServer(cfg *config.Config, store *Store, prober *Prober, emitter *obs.Emitter, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		prober:  prober,
		emitter: emitter,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/list_agents", s.handleListAgents)
	mux.HandleFunc("/unregister", s.handleUnregister)
	mux.HandleFunc("/agents/status", s.handleAgentStatus)
	mux.HandleFunc("/agents/", s.handleAgentLookup)
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
	s.logger.Info("Starting registry server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("registry server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var card agentcard.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		httpError(w, http.StatusBadRequest, "invalid agent card: "+err.Error())
		return
	}
	if err := card.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	created := s.store.Register(card)
	metrics.RegisteredAgents.Set(float64(s.store.Len()))
	s.emitter.LogEvent(obs.EventAgentRegistered, "", map[string]any{
		"agent_name": card.Name,
		"endpoint":   card.Endpoint,
		"updated":    !created,
	})
	s.logger.Info("Agent registered", "agent", card.Name, "endpoint", card.Endpoint, "new", created)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Agent %s registered successfully.", card.Name),
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := r.URL.Query().Get("agent_name")
	if name == "" {
		httpError(w, http.StatusBadRequest, "agent_name is required")
		return
	}
	if err := s.store.Remove(name); err != nil {
		httpError(w, http.StatusNotFound, "Agent not found")
		return
	}
	metrics.RegisteredAgents.Set(float64(s.store.Len()))
	s.logger.Info("Agent unregistered", "agent", name)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Agent %s unregistered successfully.", name),
	})
}

func (s *Server) handleAgentLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/agents/")
	card, err := s.store.Lookup(name)
	if err != nil {
		httpError(w, http.StatusNotFound, "Agent not found")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	statuses := make(map[string]string)
	if s.prober != nil {
		statuses = s.prober.Snapshot()
	} else {
		for _, card := range s.store.List() {
			statuses[card.Name] = StatusUnknown
		}
	}
	writeJSON(w, http.StatusOK, statuses)
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
