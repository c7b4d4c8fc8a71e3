package burden_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name     string
		in       burden.Inputs
		w        burden.Weights
		expected float64
	}{
		{
			name:     "all zero",
			in:       burden.Inputs{},
			w:        burden.NeutralWeights(),
			expected: 0,
		},
		{
			name:     "neutral mix",
			in:       burden.Inputs{Crowd: 0.5, Noise: 0.5, AQI: 150, Green: 0.5, Traffic: 0.5},
			w:        burden.NeutralWeights(),
			expected: 0.3,
		},
		{
			name:     "green clamps at zero",
			in:       burden.Inputs{Green: 1},
			w:        burden.Weights{Green: 1},
			expected: 0,
		},
		{
			name:     "saturates at one",
			in:       burden.Inputs{Crowd: 1, Noise: 1, AQI: 300, Traffic: 1},
			w:        burden.Weights{Crowd: 1, Noise: 1, Air: 1, Traffic: 1},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, burden.Segment(tt.in, tt.w), 1e-12)
		})
	}
}

func TestSegment_Monotone(t *testing.T) {
	w := burden.NeutralWeights()
	base := burden.Inputs{Crowd: 0.3, Noise: 0.3, AQI: 90, Green: 0.3, Traffic: 0.3}

	bumps := map[string]func(burden.Inputs) burden.Inputs{
		"crowd":   func(in burden.Inputs) burden.Inputs { in.Crowd += 0.2; return in },
		"noise":   func(in burden.Inputs) burden.Inputs { in.Noise += 0.2; return in },
		"aqi":     func(in burden.Inputs) burden.Inputs { in.AQI += 60; return in },
		"traffic": func(in burden.Inputs) burden.Inputs { in.Traffic += 0.2; return in },
	}
	for name, bump := range bumps {
		t.Run(name, func(t *testing.T) {
			assert.GreaterOrEqual(t, burden.Segment(bump(base), w), burden.Segment(base, w))
		})
	}

	greener := base
	greener.Green += 0.4
	assert.LessOrEqual(t, burden.Segment(greener, w), burden.Segment(base, w))
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, burden.NeutralWeights().Validate())
	assert.NoError(t, burden.DefaultWeights().Validate())

	w := burden.NeutralWeights()
	w.Air = 1.5
	assert.ErrorIs(t, w.Validate(), burden.ErrInvalidWeights)

	w = burden.NeutralWeights()
	w.Green = -0.1
	assert.ErrorIs(t, w.Validate(), burden.ErrInvalidWeights)
}

func TestFromSample(t *testing.T) {
	in := burden.FromSample(exposome.Sample{
		exposome.LayerAir:   0.5,
		exposome.LayerCrowd: 0.1,
		exposome.LayerGreen: 0.7,
	})
	assert.Equal(t, 150.0, in.AQI)
	assert.Equal(t, 0.1, in.Crowd)
	assert.Equal(t, 0.7, in.Green)
}

func averages() map[exposome.Layer]float64 {
	return map[exposome.Layer]float64{
		exposome.LayerAir:    0.6,
		exposome.LayerNoise:  0.4,
		exposome.LayerHeat:   0.5,
		exposome.LayerGreen:  0.2,
		exposome.LayerSafety: 0.3,
	}
}

func TestComposite(t *testing.T) {
	// (0.6 + 0.4 + 0.5 + 0.8 + 0.3) / 5 = 0.52
	assert.Equal(t, 52, burden.Composite(averages(), exposome.DefaultSettings()))
}

func TestComposite_NoWeight(t *testing.T) {
	s := exposome.DefaultSettings()
	for l := range s.ActiveLayers {
		s.ActiveLayers[l] = false
	}
	assert.Equal(t, 0, burden.Composite(averages(), s))

	s = exposome.DefaultSettings()
	for l := range s.Weights {
		s.Weights[l] = 0
	}
	assert.Equal(t, 0, burden.Composite(averages(), s))
}

func TestComposite_Monotone(t *testing.T) {
	s := exposome.DefaultSettings()
	base := burden.Composite(averages(), s)

	worse := averages()
	worse[exposome.LayerAir] = 0.9
	assert.GreaterOrEqual(t, burden.Composite(worse, s), base)

	greener := averages()
	greener[exposome.LayerGreen] = 0.9
	assert.LessOrEqual(t, burden.Composite(greener, s), base)
}

func TestComposite_DeactivatingZeroWeightLayer(t *testing.T) {
	s := exposome.DefaultSettings()
	s.Weights[exposome.LayerHeat] = 0
	before := burden.Composite(averages(), s)

	s.ActiveLayers[exposome.LayerHeat] = false
	assert.Equal(t, before, burden.Composite(averages(), s))

	hot := averages()
	hot[exposome.LayerHeat] = 1
	weighted := exposome.DefaultSettings()
	withHeat := burden.Composite(hot, weighted)
	weighted.ActiveLayers[exposome.LayerHeat] = false
	assert.NotEqual(t, withHeat, burden.Composite(hot, weighted))
}
