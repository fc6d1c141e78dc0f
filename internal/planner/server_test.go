package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/obs"
	"github.com/maestrohq/maestro/internal/oracle"
	"github.com/maestrohq/maestro/internal/plan"
)

func newPlannerServer(t *testing.T, g *Generator) *httptest.Server {
	t.Helper()
	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", Port: 8001}}
	emitter := obs.NewEmitter(nil, "planner", slog.Default())
	srv := NewServer(cfg, g, emitter, slog.Default())
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestPlanEndpoint(t *testing.T) {
	catalog := testCatalog("sales_data_agent")
	ora := oracleFunc(func(_ context.Context, _ *oracle.Request) (*oracle.Response, error) {
		return &oracle.Response{Content: planCompletion(
			plan.Step{Step: 1, AgentName: "sales_data_agent", Task: "fetch sales", Confidence: "high"},
		)}, nil
	})
	g := NewGenerator(ora, fakeRegistry(t, catalog), 0, slog.Default())
	ts := newPlannerServer(t, g)

	body, _ := json.Marshal(map[string]string{"goal": "get the sales numbers"})
	resp, err := http.Post(ts.URL+"/plan", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result plan.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, plan.StatusComplete, result.Status)
	require.Len(t, result.Plan, 1)
	assert.Equal(t, "sales_data_agent", result.Plan[0].AgentName)
}

func TestPlanEndpointRejectsEmptyGoal(t *testing.T) {
	g := NewGenerator(nil, fakeRegistry(t, nil), 0, slog.Default())
	ts := newPlannerServer(t, g)

	resp, err := http.Post(ts.URL+"/plan", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlanEndpointEmptyCatalog(t *testing.T) {
	ora := oracleFunc(func(_ context.Context, _ *oracle.Request) (*oracle.Response, error) {
		t.Fatal("oracle must not be called")
		return nil, nil
	})
	g := NewGenerator(ora, fakeRegistry(t, nil), 0, slog.Default())
	ts := newPlannerServer(t, g)

	body, _ := json.Marshal(map[string]string{"goal": "anything"})
	resp, err := http.Post(ts.URL+"/plan", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result plan.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, plan.StatusError, result.Status)
	assert.Equal(t, "No agents available in registry", result.Message)
}
