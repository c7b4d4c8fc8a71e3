package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/provider/resilience"
)

func TestRegistry_RecordsOutcomes(t *testing.T) {
	r := resilience.NewRegistry()
	r.Register(resilience.NewClient(resilience.DefaultClientConfig("arcgis")))

	h, ok := r.Health("arcgis")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	assert.Nil(t, h.LastSuccessAt)
	assert.Nil(t, h.LastFailureAt)

	r.RecordSuccess("arcgis")
	r.RecordFailure("arcgis", errors.New("feature server error 400: Invalid query"))

	h, ok = r.Health("arcgis")
	require.True(t, ok)
	assert.NotNil(t, h.LastSuccessAt)
	assert.NotNil(t, h.LastFailureAt)
	assert.Equal(t, "feature server error 400: Invalid query", h.LastError)
}

func TestRegistry_UnknownFeed(t *testing.T) {
	r := resilience.NewRegistry()

	r.RecordSuccess("missing")
	r.RecordFailure("missing", errors.New("boom"))

	_, ok := r.Health("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.All())
}

func TestRegistry_AllSortedByName(t *testing.T) {
	r := resilience.NewRegistry()
	for _, name := range []string{"stations", "arcgis", "loads"} {
		r.Register(resilience.NewClient(resilience.DefaultClientConfig(name)))
	}
	// Re-registering replaces rather than duplicates.
	r.Register(resilience.NewClient(resilience.DefaultClientConfig("arcgis")))

	var names []string
	for _, h := range r.All() {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"arcgis", "loads", "stations"}, names)
	assert.Equal(t, 3, r.Len())
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state     gobreaker.State
		healthy   bool
		degraded  bool
		unhealthy bool
	}{
		{state: gobreaker.StateClosed, healthy: true},
		{state: gobreaker.StateHalfOpen, degraded: true},
		{state: gobreaker.StateOpen, unhealthy: true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.healthy, h.IsHealthy())
			assert.Equal(t, tt.degraded, h.IsDegraded())
			assert.Equal(t, tt.unhealthy, h.IsUnhealthy())
		})
	}
}
