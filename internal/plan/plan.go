// Package plan holds the workflow plan types shared by the planner and
// the executor.
package plan

import "github.com/maestrohq/maestro/internal/agentcard"

// Step is one unit of a workflow: one agent, one task.
type Step struct {
	Step       int    `json:"step"`
	AgentName  string `json:"agent_name"`
	Task       string `json:"task"`
	Confidence string `json:"confidence,omitempty"`
}

// ScoreBreakdown records how a winning candidate scored.
type ScoreBreakdown struct {
	Coverage      float64 `json:"coverage"`
	Efficiency    float64 `json:"efficiency"`
	Composability float64 `json:"composability"`
}

// GapReport describes a capability missing from the catalog that
// prevents full goal coverage.
type GapReport struct {
	AtStep             int                      `json:"at_step"`
	Description        string                   `json:"description"`
	RequiredCapability string                   `json:"required_capability"`
	SuggestedAgentCard *agentcard.SuggestedCard `json:"suggested_agent_card,omitempty"`
}

// Result statuses.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusError    = "error"
)

// Result is the planner's terminal answer for one goal. Exactly one of
// Plan (complete) or AchievablePlan (partial) is populated; an error
// result carries only Status and Message.
type Result struct {
	Status                     string          `json:"status"`
	Message                    string          `json:"message,omitempty"`
	Coverage                   float64         `json:"coverage,omitempty"`
	Plan                       []Step          `json:"plan,omitempty"`
	AchievablePlan             []Step          `json:"achievable_plan,omitempty"`
	Gaps                       []GapReport     `json:"gaps,omitempty"`
	AlternativeApproachesTried int             `json:"alternative_approaches_tried,omitempty"`
	Scoring                    *ScoreBreakdown `json:"scoring,omitempty"`
	Recommendation             string          `json:"recommendation,omitempty"`
}
