package obs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func TestEmitterTraceRoundTrip(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink, "planner", slog.Default())

	traceID := em.StartTrace("plan_workflow", map[string]any{"goal": "report"})
	require.NotEmpty(t, traceID)
	em.EndTrace(traceID, StatusSuccess, map[string]any{"coverage": 1.0})

	require.Len(t, sink.events, 2)
	assert.Equal(t, EventTraceStarted, sink.events[0].EventType)
	assert.Equal(t, "planner", sink.events[0].Service)
	assert.Equal(t, traceID, sink.events[0].TraceID)
	assert.Equal(t, "plan_workflow", sink.events[0].Data["operation"])
	assert.Equal(t, EventTraceCompleted, sink.events[1].EventType)
	assert.Equal(t, StatusSuccess, sink.events[1].Data["status"])
	assert.NotEmpty(t, sink.events[0].EventID)
}

func TestEmitterSurvivesDeadSink(t *testing.T) {
	// Collector unavailability must never surface to the caller.
	em := NewEmitter(NewHTTPSink("http://127.0.0.1:1"), "executor", slog.Default())
	traceID := em.StartTrace("execute_workflow", nil)
	em.LogEvent(EventAgentInvocation, traceID, map[string]any{"agent_name": "x"})
	em.EndTrace(traceID, StatusFailed, nil)
	assert.NotEmpty(t, traceID)
}

func TestHTTPSinkPostsEvents(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/events", r.URL.Path)
		var ev Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		received <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	em := NewEmitter(NewHTTPSink(srv.URL), "registry", slog.Default())
	em.LogEvent(EventAgentRegistered, "", map[string]any{"agent_name": "sales_data_agent"})

	ev := <-received
	assert.Equal(t, EventAgentRegistered, ev.EventType)
	assert.Equal(t, "registry", ev.Service)
	assert.Equal(t, "sales_data_agent", ev.Data["agent_name"])
}

func TestNilSinkDisablesEmission(t *testing.T) {
	em := NewEmitter(nil, "planner", slog.Default())
	assert.NotEmpty(t, em.StartTrace("plan_workflow", nil))
}
