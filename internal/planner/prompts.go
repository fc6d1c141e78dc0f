package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maestrohq/maestro/internal/agentcard"
	"github.com/maestrohq/maestro/internal/plan"
)

// strategies are the decomposition angles tried in order, one oracle
// attempt each. Temperature rises with each attempt for diversity.
var strategies = []string{
	"Create a LINEAR workflow (A -> B -> C -> D)",
	"Create an EFFICIENT workflow (minimize steps, maximize agent reuse)",
	"Create a COMPREHENSIVE workflow (prioritize complete coverage)",
	"Create a CREATIVE workflow (think outside the box, combine agents in novel ways)",
}

func systemInstruction(catalog []agentcard.Card) string {
	var agentList strings.Builder
	for _, card := range catalog {
		fmt.Fprintf(&agentList, "- %s: %s\n", card.Name, card.Description)
	}

	return fmt.Sprintf(`You are an expert workflow architect for an agent orchestration system.

Your job is to decompose user goals into executable workflows using available agents.

AVAILABLE AGENTS:
%s
RULES:
1. Break down the user's goal into logical, sequential steps
2. Each step should use ONE agent from the available list
3. Steps should flow logically (output of step N feeds into step N+1)
4. Be creative in combining agents to achieve the goal
5. If you cannot complete the entire goal with available agents, do as much as possible
6. Output ONLY valid JSON in this exact format:

{
  "reasoning": "Brief explanation of your approach",
  "steps": [
    {
      "step": 1,
      "agent_name": "exact_agent_name_from_list",
      "task": "Specific task description for this agent",
      "confidence": "high|medium|low"
    }
  ],
  "estimated_coverage": 0.0 to 1.0,
  "missing_capabilities": ["list", "of", "missing", "capabilities"]
}

Be precise. Think step-by-step. Maximize coverage while maintaining logical flow.`, agentList.String())
}

func attemptPrompt(goal, approach string) string {
	return fmt.Sprintf(`Goal: %s

Strategy for this attempt: %s

Generate a workflow plan following the system instructions.`, goal, approach)
}

func gapPrompt(goal string, steps []plan.Step, coverage float64, missing []string) string {
	stepsJSON, _ := json.MarshalIndent(steps, "", "  ")

	return fmt.Sprintf(`Goal: %s

Current Plan (achievable with available agents):
%s

Coverage: %.0f%%

Missing capabilities: %s

Task: Identify the specific missing capability and generate an MCP-compatible Agent Card specification for it.

Output ONLY valid JSON in this format:
{
  "at_step": <number>,
  "description": "Detailed description of what's missing and why it's needed",
  "required_capability": "Short name for the capability",
  "suggested_agent_card": {
    "name": "snake_case_agent_name",
    "description": "Detailed description of what this agent should do",
    "inputSchema": {
      "type": "object",
      "properties": {},
      "required": []
    },
    "outputSchema": {
      "type": "object",
      "properties": {}
    },
    "implementation_hints": {
      "suggested_libraries": ["lib1", "lib2"],
      "complexity": "low|medium|high",
      "estimated_effort": "X days"
    }
  }
}`, goal, stepsJSON, coverage*100, strings.Join(missing, ", "))
}
