package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/internal/agentcard"
)

func card(name string) agentcard.Card {
	return agentcard.Card{
		Name:        name,
		Description: "test agent " + name,
		InputSchema: agentcard.InputSchema{
			Type:       "object",
			Properties: map[string]any{"task": map[string]any{"type": "string"}},
			Required:   []string{"task"},
		},
		OutputSchema: agentcard.OutputSchema{
			Type:       "object",
			Properties: map[string]any{"result": map[string]any{"type": "string"}},
		},
		Endpoint: "http://localhost:8101/execute",
	}
}

func TestRegisterAndLookup(t *testing.T) {
	store := NewStore()

	require.True(t, store.Register(card("sales_data_agent")))
	got, err := store.Lookup("sales_data_agent")
	require.NoError(t, err)
	assert.Equal(t, "sales_data_agent", got.Name)
	assert.Equal(t, 1, store.Len())
}

func TestLookupNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertKeepsInsertionOrder(t *testing.T) {
	store := NewStore()
	store.Register(card("alpha_agent"))
	store.Register(card("beta_agent"))
	store.Register(card("gamma_agent"))

	// Re-register the first agent with a new endpoint.
	updated := card("alpha_agent")
	updated.Endpoint = "http://localhost:9999/execute"
	require.False(t, store.Register(updated))

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha_agent", list[0].Name)
	assert.Equal(t, "http://localhost:9999/execute", list[0].Endpoint)
	assert.Equal(t, "beta_agent", list[1].Name)
	assert.Equal(t, "gamma_agent", list[2].Name)
}

func TestRemove(t *testing.T) {
	store := NewStore()
	store.Register(card("alpha_agent"))
	store.Register(card("beta_agent"))

	require.NoError(t, store.Remove("alpha_agent"))
	assert.Equal(t, 1, store.Len())

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "beta_agent", list[0].Name)

	assert.ErrorIs(t, store.Remove("alpha_agent"), ErrNotFound)
}
