package agentcard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCard() Card {
	return Card{
		Name:        "sales_data_agent",
		Description: "Fetches sales records",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]any{"task": map[string]any{"type": "string"}},
			Required:   []string{"task"},
		},
		OutputSchema: OutputSchema{
			Type:       "object",
			Properties: map[string]any{"records": map[string]any{"type": "array"}},
		},
		Endpoint: "http://localhost:8101/execute",
	}
}

func TestValidate(t *testing.T) {
	card := validCard()
	assert.NoError(t, card.Validate())
}

func TestValidateBadNames(t *testing.T) {
	for _, name := range []string{"", "Sales", "1agent", "sales-agent", "_agent"} {
		card := validCard()
		card.Name = name
		assert.Error(t, card.Validate(), "name %q should be rejected", name)
	}
}

func TestValidateMissingEndpoint(t *testing.T) {
	card := validCard()
	card.Endpoint = ""
	assert.Error(t, card.Validate())
}

func TestJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(validCard())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, field := range []string{"name", "description", "inputSchema", "outputSchema", "endpoint"} {
		assert.Contains(t, raw, field)
	}
}
