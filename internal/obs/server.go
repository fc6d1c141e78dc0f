package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/eventbus"
)

// Server is the observatory HTTP API: event ingest plus the query
// surface the rest of the system treats as an external collaborator.
type Server struct {
	collector  *Collector
	hub        *Hub
	subscriber *eventbus.Subscriber
	httpServer *http.Server
	logger     *slog.Logger
	cancel     context.CancelFunc
}

// TracesResponse is the trace listing payload.
type TracesResponse struct {
	Traces []*Trace `json:"traces"`
	Total  int      `json:"total"`
}

// EventsResponse is the event listing payload.
type EventsResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}

// NewServer creates the observatory server. When subscriber is non-nil
// events are also consumed from the Redis stream.
func NewServer(cfg *config.Config, collector *Collector, subscriber *eventbus.Subscriber, logger *slog.Logger) *Server {
	s := &Server{
		collector:  collector,
		hub:        NewHub(logger),
		subscriber: subscriber,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.eventsHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.HandleFunc("/traces", s.tracesHandler)
	mux.HandleFunc("/traces/", s.traceHandler)
	mux.HandleFunc("/agents", s.agentsHandler)
	mux.HandleFunc("/ws", s.hub.Handler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics/prometheus", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the stream consumer (if configured) and the HTTP
// server.
func (s *Server) Start() error {
	if s.subscriber != nil {
		var ctx context.Context
		ctx, s.cancel = context.WithCancel(context.Background())
		go s.consumeStream(ctx)
	}
	s.logger.Info("Observatory listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("observatory server failed: %w", err)
	}
	return nil
}

// Shutdown stops the consumer and gracefully shuts down HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) consumeStream(ctx context.Context) {
	for msg := range s.subscriber.Subscribe(ctx) {
		raw, ok := msg.Values["event"].(string)
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			s.logger.Warn("Dropping malformed stream event", "id", msg.ID, "error", err)
			continue
		}
		s.collector.Ingest(ev)
		s.hub.Broadcast(ev)
	}
}

// eventsHandler ingests events (POST) and lists recent ones (GET).
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.collector.Ingest(ev)
		s.hub.Broadcast(ev)
		writeJSON(w, map[string]string{"status": "accepted"})

	case http.MethodGet:
		limit := queryInt(r, "limit", 100)
		events := s.collector.Events(limit, r.URL.Query().Get("event_type"))
		writeJSON(w, EventsResponse{Events: events, Total: len(events)})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.collector.Metrics())
}

func (s *Server) tracesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	traces := s.collector.Traces(queryInt(r, "limit", 50))
	writeJSON(w, TracesResponse{Traces: traces, Total: len(traces)})
}

func (s *Server) traceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	traceID := strings.TrimPrefix(r.URL.Path, "/traces/")
	if traceID == "" {
		http.Error(w, "Trace ID required", http.StatusBadRequest)
		return
	}
	tr, ok := s.collector.Trace(traceID)
	if !ok {
		http.Error(w, "Trace not found", http.StatusNotFound)
		return
	}
	writeJSON(w, tr)
}

func (s *Server) agentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.collector.Metrics().AgentMetrics)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "service": "observatory"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
