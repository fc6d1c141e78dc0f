package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/internal/config"
)

func newObservatory(t *testing.T) (*httptest.Server, *Collector) {
	t.Helper()
	collector := NewCollector(100, 500)
	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", Port: 8003}}
	srv := NewServer(cfg, collector, nil, slog.Default())
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, collector
}

func postEvent(t *testing.T, url string, ev Event) {
	t.Helper()
	body, _ := json.Marshal(ev)
	resp, err := http.Post(url+"/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngestAndQueryTrace(t *testing.T) {
	ts, _ := newObservatory(t)

	postEvent(t, ts.URL, Event{
		EventID:   "ev-1",
		Timestamp: time.Now(),
		EventType: EventTraceStarted,
		Service:   "planner",
		TraceID:   "trace-1",
		Data:      map[string]any{"operation": "plan_workflow", "goal": "summarize sales"},
	})
	postEvent(t, ts.URL, Event{
		EventID:   "ev-2",
		Timestamp: time.Now(),
		EventType: EventTraceCompleted,
		Service:   "planner",
		TraceID:   "trace-1",
		Data:      map[string]any{"status": StatusSuccess},
	})

	resp, err := http.Get(ts.URL + "/traces/trace-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr Trace
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	assert.Equal(t, "trace-1", tr.TraceID)
	assert.Equal(t, StatusSuccess, tr.Status)
	assert.Equal(t, "summarize sales", tr.Goal)
}

func TestTraceNotFound(t *testing.T) {
	ts, _ := newObservatory(t)

	resp, err := http.Get(ts.URL + "/traces/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventListingWithFilter(t *testing.T) {
	ts, _ := newObservatory(t)

	postEvent(t, ts.URL, Event{EventID: "a", EventType: EventAgentRegistered, Service: "registry"})
	postEvent(t, ts.URL, Event{EventID: "b", EventType: EventGapDetected, Service: "planner"})

	resp, err := http.Get(ts.URL + "/events?event_type=gap_detected")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listing EventsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, EventGapDetected, listing.Events[0].EventType)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, collector := newObservatory(t)

	collector.Ingest(Event{EventType: EventTraceStarted, TraceID: "t1", Service: "executor", Data: map[string]any{"operation": "execute_workflow"}})
	collector.Ingest(Event{EventType: EventTraceCompleted, TraceID: "t1", Service: "executor", Data: map[string]any{"status": StatusSuccess}})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.SystemMetrics.RequestsTotal)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newObservatory(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "observatory", health["service"])
}
