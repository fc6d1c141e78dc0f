package executor

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

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/obs"
	"github.com/maestrohq/maestro/internal/plan"
)

func newExecutorServer(t *testing.T, cards []agentcard.Card) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "localhost", Port: 8002},
		Executor: config.ExecutorConfig{MaxRetries: 3, BaseDelay: "1ms"},
	}
	stats := NewStats()
	emitter := obs.NewEmitter(nil, "executor", slog.Default())
	engine := NewEngine(fakeRegistry(t, cards), 5*time.Second, emitter, stats, slog.Default())
	srv := NewServer(cfg, engine, stats, slog.Default())
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestExecuteWorkflowEndpoint(t *testing.T) {
	ep := fakeAgent(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"report": "done"})
	})
	cards := []agentcard.Card{{Name: "sales_data_agent", Description: "sales", Endpoint: ep}}
	ts := newExecutorServer(t, cards)

	body, _ := json.Marshal(map[string]any{
		"plan": []plan.Step{{Step: 1, AgentName: "sales_data_agent", Task: "fetch"}},
	})
	resp, err := http.Post(ts.URL+"/execute_workflow", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.ExecutionTrace, 1)

	// Local metrics reflect the finished run.
	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()

	var snap Snapshot
	require.NoError(t, json.NewDecoder(mresp.Body).Decode(&snap))
	assert.Equal(t, 1, snap.ExecutionsTotal)
	assert.Equal(t, 1, snap.ExecutionsSuccess)
}

func TestExecuteWorkflowRetryOverride(t *testing.T) {
	ep := fakeAgent(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	cards := []agentcard.Card{{Name: "sales_data_agent", Description: "sales", Endpoint: ep}}
	ts := newExecutorServer(t, cards)

	body, _ := json.Marshal(map[string]any{
		"plan":        []plan.Step{{Step: 1, AgentName: "sales_data_agent", Task: "fetch"}},
		"max_retries": 0,
	})
	resp, err := http.Post(ts.URL+"/execute_workflow", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Error, "failed after 1 attempts")
}

func TestExecuteWorkflowUnknownAgentIs500(t *testing.T) {
	ts := newExecutorServer(t, nil)

	body, _ := json.Marshal(map[string]any{
		"plan": []plan.Step{{Step: 1, AgentName: "ghost_agent", Task: "haunt"}},
	})
	resp, err := http.Post(ts.URL+"/execute_workflow", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
