// Package agentstub provides runnable capability providers backed by
// synthetic data. Each stub serves the standard agent contract and
// self-registers its card with the registry at startup.
package agentstub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/registry"
)

const registerRetryDelay = 2 * time.Second

// ExecuteRequest is the body every agent accepts: the task to perform
// and the accumulated outputs of earlier workflow steps.
type ExecuteRequest struct {
	Task    string         `json:"task"`
	Context map[string]any `json:"context"`
}

// Handler produces an agent's output for one request. The returned map
// must match the agent's declared output schema.
type Handler func(req *ExecuteRequest) map[string]any

// Stub is one runnable capability provider.
type Stub struct {
	card       agentcard.Card
	handler    Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a stub serving card.Endpoint's port.
func New(card agentcard.Card, addr string, handler Handler, logger *slog.Logger) *Stub {
	s := &Stub{
		card:    card,
		handler: handler,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Card returns the stub's registration card.
func (s *Stub) Card() agentcard.Card {
	return s.card
}

// Start begins serving. Blocks until the server stops.
func (s *Stub) Start() error {
	s.logger.Info("Starting agent", "agent", s.card.Name, "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("agent %s failed: %w", s.card.Name, err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Stub) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// SelfRegister publishes the card, retrying until the registry is
// reachable or ctx is cancelled.
func (s *Stub) SelfRegister(ctx context.Context, client *registry.Client) error {
	for {
		err := client.Register(ctx, &s.card)
		if err == nil {
			s.logger.Info("Agent registered with registry", "agent", s.card.Name)
			return nil
		}
		s.logger.Warn("Registry not reachable, retrying", "agent", s.card.Name, "error", err)
		select {
		case <-time.After(registerRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Stub) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body: " + err.Error()})
		return
	}

	s.logger.Info("Executing task", "agent", s.card.Name, "task", req.Task)
	writeJSON(w, http.StatusOK, s.handler(&req))
}

func (s *Stub) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "agent": s.card.Name})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
