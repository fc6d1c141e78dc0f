// Package planner turns a natural language goal into a scored workflow
// plan over the currently registered agents, reporting a capability gap
// when the catalog cannot cover the goal completely.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/metrics"
	"github.com/maestrohq/maestro/internal/oracle"
	"github.com/maestrohq/maestro/internal/plan"
	"github.com/maestrohq/maestro/internal/registry"
)

// Scoring weights. Composability is a flat placeholder until output
// schemas are matched against downstream input schemas.
const (
	coverageWeight     = 0.6
	efficiencyWeight   = 0.3
	composabilityScore = 0.1
	fallbackCoverage   = 0.3
	baseTemperature    = 0.7
	temperatureStep    = 0.1
	gapTemperature     = 0.3
)

// Generator produces plans for goals.
type Generator struct {
	oracle   oracle.Client
	registry *registry.Client
	attempts int
	logger   *slog.Logger
}

// NewGenerator creates a plan generator. attempts caps how many
// decomposition strategies are tried per goal.
func NewGenerator(oracleClient oracle.Client, registryClient *registry.Client, attempts int, logger *slog.Logger) *Generator {
	if attempts <= 0 || attempts > len(strategies) {
		attempts = len(strategies)
	}
	return &Generator{
		oracle:   oracleClient,
		registry: registryClient,
		attempts: attempts,
		logger:   logger,
	}
}

// rawPlan is the JSON shape the oracle is instructed to produce.
type rawPlan struct {
	Reasoning           string      `json:"reasoning"`
	Steps               []plan.Step `json:"steps"`
	EstimatedCoverage   float64     `json:"estimated_coverage"`
	MissingCapabilities []string    `json:"missing_capabilities"`
}

// candidate is one validated decomposition.
type candidate struct {
	attempt   int
	approach  string
	steps     []plan.Step
	coverage  float64
	reasoning string
	missing   []string
	score     float64
	breakdown plan.ScoreBreakdown
}

// GeneratePlan produces the terminal plan result for a goal. A
// registry fetch failure is a transport error; everything downstream
// of a fetched catalog resolves to a result, never an error.
func (g *Generator) GeneratePlan(ctx context.Context, goal string) (*plan.Result, error) {
	catalog, err := g.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent catalog: %w", err)
	}

	if len(catalog) == 0 {
		return &plan.Result{
			Status:  plan.StatusError,
			Message: "No agents available in registry",
		}, nil
	}

	candidates := g.generateCandidates(ctx, goal, catalog)
	if len(candidates) == 0 {
		candidates = append(candidates, fallbackCandidate(goal, catalog))
	}

	best := scoreAndSelect(candidates)
	g.logger.Info("Selected plan candidate",
		"approach", best.approach, "coverage", best.coverage, "steps", len(best.steps), "score", best.score)

	if best.coverage >= 1.0 {
		breakdown := best.breakdown
		return &plan.Result{
			Status:                     plan.StatusComplete,
			Coverage:                   best.coverage,
			Plan:                       best.steps,
			AlternativeApproachesTried: len(candidates),
			Scoring:                    &breakdown,
		}, nil
	}

	gaps, recommendation := g.analyzeGaps(ctx, goal, best)
	return &plan.Result{
		Status:                     plan.StatusPartial,
		Coverage:                   best.coverage,
		AchievablePlan:             best.steps,
		Gaps:                       gaps,
		AlternativeApproachesTried: len(candidates),
		Recommendation:             recommendation,
	}, nil
}

// generateCandidates runs one oracle attempt per strategy, silently
// discarding unparseable or fully invalid completions.
func (g *Generator) generateCandidates(ctx context.Context, goal string, catalog []agentcard.Card) []candidate {
	system := systemInstruction(catalog)
	var candidates []candidate

	for i, approach := range strategies[:g.attempts] {
		attempt := i + 1
		start := time.Now()
		resp, err := g.oracle.Complete(ctx, &oracle.Request{
			System:      system,
			Prompt:      attemptPrompt(goal, approach),
			Temperature: baseTemperature + temperatureStep*float64(attempt),
			JSONMode:    true,
		})
		metrics.OracleLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			g.logger.Warn("Decomposition attempt failed", "attempt", attempt, "error", err)
			continue
		}

		var raw rawPlan
		if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
			g.logger.Warn("Discarding unparseable completion", "attempt", attempt, "error", err)
			continue
		}

		c, ok := validate(raw, catalog)
		if !ok {
			g.logger.Warn("Discarding candidate with no valid steps", "attempt", attempt)
			continue
		}
		c.attempt = attempt
		c.approach = approach
		candidates = append(candidates, c)
	}
	return candidates
}

// validate drops steps naming agents absent from the catalog and
// recomputes coverage as the surviving fraction of proposed steps.
func validate(raw rawPlan, catalog []agentcard.Card) (candidate, bool) {
	known := make(map[string]struct{}, len(catalog))
	for _, card := range catalog {
		known[card.Name] = struct{}{}
	}

	var valid []plan.Step
	for _, step := range raw.Steps {
		if _, ok := known[step.AgentName]; ok {
			valid = append(valid, step)
		}
	}
	if len(valid) == 0 {
		return candidate{}, false
	}

	coverage := 0.0
	if len(raw.Steps) > 0 {
		coverage = float64(len(valid)) / float64(len(raw.Steps))
	}

	return candidate{
		steps:     valid,
		coverage:  coverage,
		reasoning: raw.Reasoning,
		missing:   raw.MissingCapabilities,
	}, true
}

// fallbackCandidate is used when every oracle attempt failed: a single
// low-confidence step against the first registered agent.
func fallbackCandidate(goal string, catalog []agentcard.Card) candidate {
	return candidate{
		attempt:  0,
		approach: "fallback",
		steps: []plan.Step{{
			Step:       1,
			AgentName:  catalog[0].Name,
			Task:       fmt.Sprintf("Attempt to address: %s", goal),
			Confidence: "low",
		}},
		coverage:  fallbackCoverage,
		reasoning: "Fallback plan due to generation failure",
		missing:   []string{"Advanced planning capabilities"},
	}
}

// scoreAndSelect scores every candidate and returns the best, first
// seen winning ties.
func scoreAndSelect(candidates []candidate) candidate {
	best := 0
	for i := range candidates {
		c := &candidates[i]
		c.breakdown = plan.ScoreBreakdown{
			Coverage:      c.coverage * coverageWeight,
			Efficiency:    (1.0 / float64(max(len(c.steps), 1))) * efficiencyWeight,
			Composability: composabilityScore,
		}
		c.score = c.breakdown.Coverage + c.breakdown.Efficiency + c.breakdown.Composability
		if c.score > candidates[best].score {
			best = i
		}
	}
	return candidates[best]
}
