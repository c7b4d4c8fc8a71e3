// Package burden combines exposome samples into a 0–1 burden value and
// route-level composite scores.
package burden

import (
	"errors"
	"fmt"
	"math"

	"github.com/calmroute/calmroute/internal/exposome"
)

// ErrInvalidWeights indicates a weight outside [0, 1].
var ErrInvalidWeights = errors.New("invalid burden weights")

// Weights is the routing profile weight vector. Each weight is in [0, 1].
type Weights struct {
	Crowd   float64 `json:"crowd"`
	Noise   float64 `json:"noise"`
	Green   float64 `json:"green"`
	Air     float64 `json:"air"`
	Traffic float64 `json:"traffic"`
}

// NeutralWeights weighs every component equally.
func NeutralWeights() Weights {
	return Weights{Crowd: 0.2, Noise: 0.2, Green: 0.2, Air: 0.2, Traffic: 0.2}
}

// DefaultWeights are the dashboard's initial slider positions.
func DefaultWeights() Weights {
	return Weights{Crowd: 0.3, Noise: 0.2, Green: 0.2, Air: 0.2, Traffic: 0.1}
}

// Validate checks that every weight is a finite value in [0, 1].
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"crowd":   w.Crowd,
		"noise":   w.Noise,
		"green":   w.Green,
		"air":     w.Air,
		"traffic": w.Traffic,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, name, v)
		}
	}
	return nil
}

// Inputs are the per-point values the segment formula reads. AQI is on
// [0, 300]; every other field is on [0, 1].
type Inputs struct {
	Crowd   float64
	Noise   float64
	AQI     float64
	Green   float64
	Traffic float64
}

// FromSample extracts segment inputs from a full exposome sample.
func FromSample(s exposome.Sample) Inputs {
	return Inputs{
		Crowd:   s[exposome.LayerCrowd],
		Noise:   s[exposome.LayerNoise],
		AQI:     s.AQI(),
		Green:   s[exposome.LayerGreen],
		Traffic: s[exposome.LayerTraffic],
	}
}

// Segment returns the clamped burden for one point.
func Segment(in Inputs, w Weights) float64 {
	raw := in.Crowd*w.Crowd +
		in.Noise*w.Noise +
		(in.AQI/exposome.MaxAQI)*w.Air +
		in.Traffic*w.Traffic -
		in.Green*w.Green
	return clamp(raw, 0, 1)
}

// Composite scores layer averages under exposome settings on a 0–100 scale.
// Protective layers contribute 1 − average. Returns 0 when no active layer
// carries weight.
func Composite(averages map[exposome.Layer]float64, settings exposome.Settings) int {
	var numer, denom float64
	for _, layer := range exposome.AllLayers {
		if !settings.ActiveLayers[layer] {
			continue
		}
		w := settings.Weights[layer]
		if w <= 0 {
			continue
		}
		v := averages[layer]
		if layer.Protective() {
			v = 1 - v
		}
		numer += w * v
		denom += w
	}
	if denom == 0 {
		return 0
	}
	return int(math.Round(100 * numer / denom))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
