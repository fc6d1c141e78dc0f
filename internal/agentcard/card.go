// Package agentcard defines the structural contract a capability
// provider publishes to the registry: its name, a human-readable
// description, the payload shapes it accepts and produces, and the
// endpoint it can be invoked at.
package agentcard

import (
	"fmt"
	"regexp"
)

var nameRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// InputSchema describes the payload shape a capability accepts.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// OutputSchema describes the payload shape a capability produces.
type OutputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Card is the registration record for one capability provider.
type Card struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	InputSchema  InputSchema  `json:"inputSchema"`
	OutputSchema OutputSchema `json:"outputSchema"`
	Endpoint     string       `json:"endpoint"`
}

// Validate checks the card for registration. Names are lowercase
// alphanumeric/underscore and start with a letter.
func (c *Card) Validate() error {
	if !nameRE.MatchString(c.Name) {
		return fmt.Errorf("invalid agent name %q: must match %s", c.Name, nameRE.String())
	}
	if c.Description == "" {
		return fmt.Errorf("agent %s: description is required", c.Name)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("agent %s: endpoint is required", c.Name)
	}
	return nil
}

// ImplementationHints accompany a suggested card in a gap report: a
// sketch of how the missing capability could be built.
type ImplementationHints struct {
	SuggestedLibraries []string `json:"suggested_libraries,omitempty"`
	Complexity         string   `json:"complexity,omitempty"`
	EstimatedEffort    string   `json:"estimated_effort,omitempty"`
}

// SuggestedCard is a synthesized, not-yet-registered card the planner
// proposes to close a capability gap.
type SuggestedCard struct {
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	InputSchema         InputSchema          `json:"inputSchema"`
	OutputSchema        OutputSchema         `json:"outputSchema"`
	ImplementationHints *ImplementationHints `json:"implementation_hints,omitempty"`
}
