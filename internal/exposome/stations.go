package exposome

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/calmroute/calmroute/internal/geo"
)

// ErrEmptySnapshot indicates a station snapshot with no usable stations.
var ErrEmptySnapshot = errors.New("station snapshot has no stations")

// Station is a monitoring site with measured layer values in [0, 1].
type Station struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Values map[Layer]float64 `json:"values"`
	// AQI, when set, overrides Values[air] via AQIAsAir.
	AQI *float64 `json:"aqi,omitempty"`
}

// StationSnapshot is a set of measurements taken at about the same time.
type StationSnapshot struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stations  []Station `json:"stations"`
}

// LoadStationSnapshot decodes and validates a snapshot from JSON.
func LoadStationSnapshot(r io.Reader) (*StationSnapshot, error) {
	var snap StationSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode station snapshot: %w", err)
	}

	stations := snap.Stations[:0]
	for _, st := range snap.Stations {
		if err := (geo.Point{Lat: st.Lat, Lon: st.Lon}).Validate(); err != nil {
			continue
		}
		values := make(map[Layer]float64, len(st.Values)+1)
		for l, v := range st.Values {
			if l.Valid() {
				values[l] = clamp01(v)
			}
		}
		if st.AQI != nil {
			values[LayerAir] = clamp01(AQIAsAir(*st.AQI))
		}
		st.Values = values
		stations = append(stations, st)
	}
	snap.Stations = stations

	if len(snap.Stations) == 0 {
		return nil, ErrEmptySnapshot
	}
	return &snap, nil
}

// InterpolationConfig controls inverse-distance weighting.
type InterpolationConfig struct {
	// MaxDistanceKm ignores stations further than this. Default: 15.
	MaxDistanceKm float64

	// MaxStations caps the nearest stations used. Default: 5.
	MaxStations int

	// Power is the IDW exponent. Default: 2.
	Power float64
}

// DefaultInterpolationConfig returns the default configuration.
func DefaultInterpolationConfig() InterpolationConfig {
	return InterpolationConfig{
		MaxDistanceKm: 15,
		MaxStations:   5,
		Power:         2.0,
	}
}

// StationOverlay replaces layers measured by stations with interpolated
// values and falls back to a base source elsewhere.
type StationOverlay struct {
	base     Source
	stations []Station
	config   InterpolationConfig
}

var _ Source = (*StationOverlay)(nil)

// NewStationOverlay creates an overlay over base.
func NewStationOverlay(base Source, snap *StationSnapshot, config InterpolationConfig) *StationOverlay {
	defaults := DefaultInterpolationConfig()
	if config.MaxDistanceKm <= 0 {
		config.MaxDistanceKm = defaults.MaxDistanceKm
	}
	if config.MaxStations <= 0 {
		config.MaxStations = defaults.MaxStations
	}
	if config.Power <= 0 {
		config.Power = defaults.Power
	}

	var stations []Station
	if snap != nil {
		stations = make([]Station, len(snap.Stations))
		copy(stations, snap.Stations)
	}

	return &StationOverlay{
		base:     base,
		stations: stations,
		config:   config,
	}
}

type stationDistance struct {
	value    float64
	distance float64
}

// Value implements Source.
func (o *StationOverlay) Value(layer Layer, lat, lon float64) float64 {
	var candidates []stationDistance
	for _, st := range o.stations {
		v, ok := st.Values[layer]
		if !ok {
			continue
		}
		d := geo.GreatCircleKm(lat, lon, st.Lat, st.Lon)
		if d > o.config.MaxDistanceKm {
			continue
		}
		candidates = append(candidates, stationDistance{value: v, distance: d})
	}

	if len(candidates) == 0 {
		return o.base.Value(layer, lat, lon)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})
	if len(candidates) > o.config.MaxStations {
		candidates = candidates[:o.config.MaxStations]
	}

	// Within a metre of a station, use its value directly.
	if candidates[0].distance < 0.001 {
		return candidates[0].value
	}

	var weighted, total float64
	for _, c := range candidates {
		w := 1.0 / math.Pow(c.distance, o.config.Power)
		weighted += c.value * w
		total += w
	}
	return clamp01(weighted / total)
}

// StationCount returns the number of stations in the overlay.
func (o *StationOverlay) StationCount() int {
	return len(o.stations)
}
