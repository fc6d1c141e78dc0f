package registry

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeReachableEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := NewStore()
	c := card("sales_data_agent")
	c.Endpoint = ts.URL + "/execute"
	store.Register(c)

	prober, err := NewProber(store, "", slog.Default())
	require.NoError(t, err)

	prober.ProbeAll()
	assert.Equal(t, StatusUp, prober.Status("sales_data_agent"))
}

func TestProbeDeadEndpoint(t *testing.T) {
	store := NewStore()
	c := card("news_search_agent")
	c.Endpoint = "http://127.0.0.1:1/execute"
	store.Register(c)

	prober, err := NewProber(store, "", slog.Default())
	require.NoError(t, err)

	prober.ProbeAll()
	assert.Equal(t, StatusDown, prober.Status("news_search_agent"))
}

func TestStatusBeforeFirstProbe(t *testing.T) {
	store := NewStore()
	store.Register(card("text_analysis_agent"))

	prober, err := NewProber(store, "", slog.Default())
	require.NoError(t, err)

	assert.Equal(t, StatusUnknown, prober.Status("text_analysis_agent"))
	snap := prober.Snapshot()
	assert.Equal(t, StatusUnknown, snap["text_analysis_agent"])
}

func TestInvalidSchedule(t *testing.T) {
	_, err := NewProber(NewStore(), "not a cron spec", slog.Default())
	assert.Error(t, err)
}
