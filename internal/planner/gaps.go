package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maestrohq/maestro/internal/oracle"
	"github.com/maestrohq/maestro/internal/plan"
)

// analyzeGaps asks the oracle to name the missing capability and draft
// an agent card for it. Any failure degrades to a generic gap; gap
// analysis never fails a planning call.
func (g *Generator) analyzeGaps(ctx context.Context, goal string, best candidate) ([]plan.GapReport, string) {
	resp, err := g.oracle.Complete(ctx, &oracle.Request{
		Prompt:      gapPrompt(goal, best.steps, best.coverage, best.missing),
		Temperature: gapTemperature,
		JSONMode:    true,
	})
	if err != nil {
		g.logger.Warn("Gap analysis failed", "error", err)
		return genericGap(best)
	}

	var gap plan.GapReport
	if err := json.Unmarshal([]byte(resp.Content), &gap); err != nil || gap.SuggestedAgentCard == nil {
		g.logger.Warn("Discarding malformed gap analysis", "error", err)
		return genericGap(best)
	}

	recommendation := fmt.Sprintf(
		"You can complete %.0f%% of this workflow now. Build the %s to complete the workflow.",
		best.coverage*100, gap.SuggestedAgentCard.Name)
	return []plan.GapReport{gap}, recommendation
}

func genericGap(best candidate) ([]plan.GapReport, string) {
	gaps := []plan.GapReport{{
		AtStep:             len(best.steps) + 1,
		Description:        "Unable to complete full workflow with available agents",
		RequiredCapability: "unknown",
	}}
	recommendation := fmt.Sprintf("Complete %.0f%% of workflow with current agents", best.coverage*100)
	return gaps, recommendation
}
