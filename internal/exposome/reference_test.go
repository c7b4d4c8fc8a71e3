package exposome_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/exposome"
)

func TestLosAngeles(t *testing.T) {
	ref, err := exposome.LosAngeles()
	require.NoError(t, err)

	assert.Len(t, ref.GreenSpaces, 10)
	assert.Len(t, ref.CrowdHotspots, 8)
	assert.Equal(t, "Griffith Park", ref.GreenSpaces[0].Name)
	assert.Equal(t, 0.9, ref.CrowdHotspots[0].Magnitude)
	assert.Equal(t, exposome.LosAngelesBounds, ref.Bounds)
	assert.Equal(t, 0.05, ref.EnvironmentGrid.Step)
}

func TestLoadReference_RejectsBadMagnitude(t *testing.T) {
	doc := `
green_spaces:
  - {id: x, lat: 34, lon: -118, magnitude: 1.5}
environment_grid: {lat_min: 34, lat_max: 34.1, lon_min: -118.1, lon_max: -118, step: 0.05}
`
	_, err := exposome.LoadReference(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestBuildEnvironmentGrid(t *testing.T) {
	ref, err := exposome.LosAngeles()
	require.NoError(t, err)

	field := exposome.NewField()
	grid := exposome.BuildEnvironmentGrid(field, ref.EnvironmentGrid)

	// 34.00..34.15 by 0.05 and -118.50..-118.20 by 0.05, edges included.
	require.Equal(t, 4*7, grid.Len())

	cells := grid.Cells()
	first := cells[0]
	assert.Equal(t, 34.0, first.Lat)
	assert.Equal(t, -118.5, first.Lon)
	assert.Equal(t, exposome.AirAsAQI(field.Value(exposome.LayerAir, 34.0, -118.5)), first.AQI)

	for _, c := range cells {
		assert.GreaterOrEqual(t, c.AQI, 0.0)
		assert.LessOrEqual(t, c.AQI, exposome.MaxAQI)
	}
}
