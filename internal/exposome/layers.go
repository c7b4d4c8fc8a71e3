// Package exposome models the environmental exposures a traveller meets along
// a route: air, noise, heat, green space, safety, crowd density and traffic.
package exposome

import (
	"errors"
	"fmt"
)

// ErrUnknownLayer indicates a layer name outside the supported set.
var ErrUnknownLayer = errors.New("unknown exposome layer")

// Layer is one environmental exposure.
type Layer string

const (
	LayerAir     Layer = "air"
	LayerNoise   Layer = "noise"
	LayerHeat    Layer = "heat"
	LayerGreen   Layer = "green"
	LayerSafety  Layer = "safety"
	LayerCrowd   Layer = "crowd"
	LayerTraffic Layer = "traffic"
)

// AllLayers lists every layer in canonical order.
var AllLayers = []Layer{LayerAir, LayerNoise, LayerHeat, LayerGreen, LayerSafety, LayerCrowd, LayerTraffic}

// OverlayLayers are the layers the dashboard can toggle and render.
var OverlayLayers = []Layer{LayerAir, LayerNoise, LayerHeat, LayerGreen, LayerSafety}

// Protective reports whether higher values of the layer reduce burden.
func (l Layer) Protective() bool {
	return l == LayerGreen
}

// Valid reports whether l is a known layer.
func (l Layer) Valid() bool {
	for _, known := range AllLayers {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLayer converts a name to a Layer.
func ParseLayer(s string) (Layer, error) {
	l := Layer(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
	return l, nil
}

// Sample is the value of each layer at one coordinate, every value in [0, 1].
type Sample map[Layer]float64

// AQI returns the air layer on the AQI scale.
func (s Sample) AQI() float64 {
	return AirAsAQI(s[LayerAir])
}

// MaxAQI is the top of the AQI scale used for the air layer.
const MaxAQI = 300.0

// AirAsAQI maps an air layer value in [0, 1] to the AQI scale [0, 300].
func AirAsAQI(v float64) float64 {
	return MaxAQI * v
}

// AQIAsAir is the inverse of AirAsAQI.
func AQIAsAir(aqi float64) float64 {
	return aqi / MaxAQI
}
