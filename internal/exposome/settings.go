package exposome

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings indicates negative weights or an unknown layer.
var ErrInvalidSettings = errors.New("invalid exposome settings")

// Settings control which layers contribute to a route composite and how much.
type Settings struct {
	ActiveLayers map[Layer]bool    `json:"activeLayers"`
	Weights      map[Layer]float64 `json:"weights"`
	VisibleLayer Layer             `json:"visibleLayer"`
}

// DefaultSettings activates every overlay layer with weight 1 and shows air.
func DefaultSettings() Settings {
	s := Settings{
		ActiveLayers: make(map[Layer]bool, len(OverlayLayers)),
		Weights:      make(map[Layer]float64, len(OverlayLayers)),
		VisibleLayer: LayerAir,
	}
	for _, l := range OverlayLayers {
		s.ActiveLayers[l] = true
		s.Weights[l] = 1
	}
	return s
}

// Validate checks layer names and that weights are finite and non-negative.
func (s Settings) Validate() error {
	for l := range s.ActiveLayers {
		if !l.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSettings, ErrUnknownLayer, l)
		}
	}
	for l, w := range s.Weights {
		if !l.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSettings, ErrUnknownLayer, l)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight for %s is not finite", ErrInvalidSettings, l)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight for %s is negative", ErrInvalidSettings, l)
		}
	}
	if s.VisibleLayer != "" && !s.VisibleLayer.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSettings, ErrUnknownLayer, s.VisibleLayer)
	}
	return nil
}
