package exposome_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/exposome"
)

func TestField_Deterministic(t *testing.T) {
	field := exposome.NewField()

	for _, layer := range exposome.AllLayers {
		first := field.Value(layer, 34.05, -118.25)
		second := exposome.NewField().Value(layer, 34.05, -118.25)
		assert.Equal(t, first, second, layer)
	}
}

func TestField_AirHigherDowntown(t *testing.T) {
	field := exposome.NewField()

	downtown := field.Value(exposome.LayerAir, 34.05, -118.25)
	outskirts := field.Value(exposome.LayerAir, 34.30, -118.60)

	assert.Greater(t, downtown, outskirts)
}

func TestField_GreenLowerDowntown(t *testing.T) {
	field := exposome.NewField()

	downtown := field.Value(exposome.LayerGreen, 34.05, -118.25)
	outskirts := field.Value(exposome.LayerGreen, 34.30, -118.60)

	assert.Less(t, downtown, outskirts)
}

func TestField_Clamped(t *testing.T) {
	field := exposome.NewField()

	for _, p := range exposome.GenerateGrid(exposome.LosAngelesBounds, 15, 15) {
		for _, layer := range exposome.AllLayers {
			v := field.Value(layer, p.Lat, p.Lon)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	// Far outside the box the clamp still holds.
	for _, layer := range exposome.AllLayers {
		v := field.Value(layer, -80, 170)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestField_UnknownLayer(t *testing.T) {
	assert.Zero(t, exposome.NewField().Value(exposome.Layer("pollen"), 34.05, -118.25))
}

func TestSampleAt(t *testing.T) {
	field := exposome.NewField()
	sample := exposome.SampleAt(field, 34.05, -118.25)

	require.Len(t, sample, len(exposome.AllLayers))
	assert.Equal(t, exposome.AirAsAQI(sample[exposome.LayerAir]), sample.AQI())
}

func TestAirAsAQI(t *testing.T) {
	assert.Equal(t, 0.0, exposome.AirAsAQI(0))
	assert.Equal(t, 150.0, exposome.AirAsAQI(0.5))
	assert.Equal(t, 300.0, exposome.AirAsAQI(1))
	assert.InDelta(t, 0.5, exposome.AQIAsAir(150), 1e-12)
}

func TestGenerateGrid(t *testing.T) {
	b := exposome.LosAngelesBounds
	points := exposome.GenerateGrid(b, 12, 12)

	require.Len(t, points, 144)
	assert.Equal(t, "0-0", points[0].ID)
	assert.Equal(t, b.LatMin, points[0].Lat)
	assert.Equal(t, b.LonMin, points[0].Lon)

	last := points[len(points)-1]
	assert.Equal(t, "11-11", last.ID)
	assert.InDelta(t, b.LatMax, last.Lat, 1e-12)
	assert.InDelta(t, b.LonMax, last.Lon, 1e-12)
}

func TestGenerateGrid_Degenerate(t *testing.T) {
	b := exposome.LosAngelesBounds

	single := exposome.GenerateGrid(b, 1, 1)
	require.Len(t, single, 1)
	assert.Equal(t, b.LatMin, single[0].Lat)
	assert.Equal(t, b.LonMin, single[0].Lon)

	assert.Empty(t, exposome.GenerateGrid(b, 0, 5))
}

func TestParseLayer(t *testing.T) {
	l, err := exposome.ParseLayer("green")
	require.NoError(t, err)
	assert.True(t, l.Protective())
	assert.False(t, exposome.LayerAir.Protective())

	_, err = exposome.ParseLayer("pollen")
	assert.ErrorIs(t, err, exposome.ErrUnknownLayer)
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, exposome.DefaultSettings().Validate())

	for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
		bad := exposome.DefaultSettings()
		bad.Weights[exposome.LayerNoise] = w
		assert.ErrorIs(t, bad.Validate(), exposome.ErrInvalidSettings, "weight %v", w)
	}

	unknown := exposome.DefaultSettings()
	unknown.ActiveLayers["pollen"] = true
	err := unknown.Validate()
	assert.ErrorIs(t, err, exposome.ErrInvalidSettings)
	assert.ErrorIs(t, err, exposome.ErrUnknownLayer)
}
