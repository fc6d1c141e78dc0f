package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/oracle"
	"github.com/maestrohq/maestro/internal/plan"
	"github.com/maestrohq/maestro/internal/registry"
)

type oracleFunc func(ctx context.Context, req *oracle.Request) (*oracle.Response, error)

func (f oracleFunc) Complete(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	return f(ctx, req)
}

func (f oracleFunc) Health() error { return nil }

func testCatalog(names ...string) []agentcard.Card {
	cards := make([]agentcard.Card, 0, len(names))
	for _, name := range names {
		cards = append(cards, agentcard.Card{
			Name:        name,
			Description: "test agent " + name,
			Endpoint:    "http://localhost:8101/execute",
		})
	}
	return cards
}

func fakeRegistry(t *testing.T, cards []agentcard.Card) *registry.Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/list_agents", r.URL.Path)
		json.NewEncoder(w).Encode(cards)
	}))
	t.Cleanup(ts.Close)
	return registry.NewClient(&config.RegistryConfig{URL: ts.URL, Timeout: "5s"})
}

func planCompletion(steps ...plan.Step) string {
	out, _ := json.Marshal(map[string]any{
		"reasoning":            "use the agents in order",
		"steps":                steps,
		"estimated_coverage":   1.0,
		"missing_capabilities": []string{},
	})
	return string(out)
}

func TestGeneratePlanComplete(t *testing.T) {
	catalog := testCatalog("sales_data_agent", "text_analysis_agent")
	completion := planCompletion(
		plan.Step{Step: 1, AgentName: "sales_data_agent", Task: "fetch Q3 sales", Confidence: "high"},
		plan.Step{Step: 2, AgentName: "text_analysis_agent", Task: "summarize results", Confidence: "high"},
	)
	var temps []float64
	ora := oracleFunc(func(_ context.Context, req *oracle.Request) (*oracle.Response, error) {
		temps = append(temps, req.Temperature)
		return &oracle.Response{Content: completion}, nil
	})

	g := NewGenerator(ora, fakeRegistry(t, catalog), 0, slog.Default())
	result, err := g.GeneratePlan(context.Background(), "analyze Q3 sales")
	require.NoError(t, err)

	assert.Equal(t, plan.StatusComplete, result.Status)
	assert.Equal(t, 1.0, result.Coverage)
	require.Len(t, result.Plan, 2)
	assert.Equal(t, "sales_data_agent", result.Plan[0].AgentName)
	assert.Equal(t, 4, result.AlternativeApproachesTried)
	require.NotNil(t, result.Scoring)
	assert.InDelta(t, 0.6, result.Scoring.Coverage, 1e-9)
	assert.InDelta(t, 0.15, result.Scoring.Efficiency, 1e-9)
	assert.InDelta(t, 0.1, result.Scoring.Composability, 1e-9)

	// One call per strategy, temperature rising by 0.1 each attempt.
	require.Len(t, temps, 4)
	assert.InDelta(t, 0.8, temps[0], 1e-9)
	assert.InDelta(t, 1.1, temps[3], 1e-9)
}

func TestEmptyCatalogIsTerminalError(t *testing.T) {
	ora := oracleFunc(func(_ context.Context, _ *oracle.Request) (*oracle.Response, error) {
		t.Fatal("oracle must not be called with an empty catalog")
		return nil, nil
	})

	g := NewGenerator(ora, fakeRegistry(t, nil), 0, slog.Default())
	result, err := g.GeneratePlan(context.Background(), "do anything")
	require.NoError(t, err)
	assert.Equal(t, plan.StatusError, result.Status)
	assert.Equal(t, "No agents available in registry", result.Message)
}

func TestUnknownAgentStepsDropped(t *testing.T) {
	catalog := testCatalog("sales_data_agent")
	completion := planCompletion(
		plan.Step{Step: 1, AgentName: "sales_data_agent", Task: "fetch sales"},
		plan.Step{Step: 2, AgentName: "forecast_agent", Task: "forecast next quarter"},
	)
	gap := map[string]any{
		"at_step":             2,
		"description":         "No forecasting capability is registered",
		"required_capability": "forecasting",
		"suggested_agent_card": map[string]any{
			"name":        "forecast_agent",
			"description": "Forecasts future sales from historical data",
		},
	}
	gapJSON, _ := json.Marshal(gap)

	ora := oracleFunc(func(_ context.Context, req *oracle.Request) (*oracle.Response, error) {
		if req.System == "" {
			return &oracle.Response{Content: string(gapJSON)}, nil
		}
		return &oracle.Response{Content: completion}, nil
	})

	g := NewGenerator(ora, fakeRegistry(t, catalog), 0, slog.Default())
	result, err := g.GeneratePlan(context.Background(), "forecast sales")
	require.NoError(t, err)

	assert.Equal(t, plan.StatusPartial, result.Status)
	assert.Equal(t, 0.5, result.Coverage)
	require.Len(t, result.AchievablePlan, 1)
	assert.Equal(t, "sales_data_agent", result.AchievablePlan[0].AgentName)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, "forecasting", result.Gaps[0].RequiredCapability)
	assert.Equal(t, "You can complete 50% of this workflow now. Build the forecast_agent to complete the workflow.", result.Recommendation)
}

func TestFallbackWhenOracleFails(t *testing.T) {
	catalog := testCatalog("sales_data_agent", "news_search_agent")
	ora := oracleFunc(func(_ context.Context, _ *oracle.Request) (*oracle.Response, error) {
		return nil, fmt.Errorf("oracle unavailable")
	})

	g := NewGenerator(ora, fakeRegistry(t, catalog), 0, slog.Default())
	result, err := g.GeneratePlan(context.Background(), "summarize the news")
	require.NoError(t, err)

	assert.Equal(t, plan.StatusPartial, result.Status)
	assert.Equal(t, 0.3, result.Coverage)
	require.Len(t, result.AchievablePlan, 1)
	assert.Equal(t, "sales_data_agent", result.AchievablePlan[0].AgentName)
	assert.Equal(t, "Attempt to address: summarize the news", result.AchievablePlan[0].Task)
	assert.Equal(t, "low", result.AchievablePlan[0].Confidence)

	// Gap analysis also failed, so the generic gap applies.
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, "unknown", result.Gaps[0].RequiredCapability)
	assert.Equal(t, 2, result.Gaps[0].AtStep)
	assert.Equal(t, "Complete 30% of workflow with current agents", result.Recommendation)
}

func TestUnparseableCompletionsDiscarded(t *testing.T) {
	catalog := testCatalog("sales_data_agent")
	calls := 0
	ora := oracleFunc(func(_ context.Context, req *oracle.Request) (*oracle.Response, error) {
		if req.System == "" {
			return nil, fmt.Errorf("no gap analysis in this test")
		}
		calls++
		if calls < 4 {
			return &oracle.Response{Content: "sorry, I cannot produce JSON"}, nil
		}
		return &oracle.Response{Content: planCompletion(
			plan.Step{Step: 1, AgentName: "sales_data_agent", Task: "fetch sales"},
		)}, nil
	})

	g := NewGenerator(ora, fakeRegistry(t, catalog), 0, slog.Default())
	result, err := g.GeneratePlan(context.Background(), "get sales")
	require.NoError(t, err)

	assert.Equal(t, plan.StatusComplete, result.Status)
	assert.Equal(t, 1, result.AlternativeApproachesTried)
}

func TestScoreAndSelect(t *testing.T) {
	full := candidate{steps: make([]plan.Step, 3), coverage: 1.0}
	short := candidate{steps: make([]plan.Step, 1), coverage: 0.5}

	best := scoreAndSelect([]candidate{full, short})
	// 0.6 + 0.1 + 0.1 beats 0.3 + 0.3 + 0.1.
	assert.Equal(t, 1.0, best.coverage)

	// Ties resolve to the first candidate seen.
	a := candidate{steps: make([]plan.Step, 2), coverage: 0.8, approach: "first"}
	b := candidate{steps: make([]plan.Step, 2), coverage: 0.8, approach: "second"}
	assert.Equal(t, "first", scoreAndSelect([]candidate{a, b}).approach)
}
