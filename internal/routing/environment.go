package routing

import (
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/spatial"
)

// Environment is everything a segment is sampled from.
type Environment struct {
	// Field supplies heat and safety, and air/noise/traffic when Grid is empty.
	Field exposome.Source

	// Grid supplies AQI, noise and traffic from the nearest cell (optional).
	Grid *spatial.Grid

	// GreenSpaces attract low-stress and balanced routes.
	GreenSpaces *spatial.PointSet

	// CrowdHotspots repel low-stress routes.
	CrowdHotspots *spatial.PointSet

	// GreenRadiusKm is the green influence radius (default: 0.8).
	GreenRadiusKm float64

	// CrowdRadiusKm is the crowd influence radius (default: 1.6).
	CrowdRadiusKm float64
}

func (e *Environment) withDefaults() *Environment {
	out := *e
	if out.Field == nil {
		out.Field = exposome.NewField()
	}
	if out.GreenRadiusKm <= 0 {
		out.GreenRadiusKm = spatial.GreenRadiusKm
	}
	if out.CrowdRadiusKm <= 0 {
		out.CrowdRadiusKm = spatial.CrowdRadiusKm
	}
	return &out
}

// Sample returns the exposures at a point. Burden is left zero.
func (e *Environment) Sample(lat, lon float64) Segment {
	seg := Segment{
		Lat:    lat,
		Lon:    lon,
		Heat:   e.Field.Value(exposome.LayerHeat, lat, lon),
		Safety: e.Field.Value(exposome.LayerSafety, lat, lon),
		Green:  e.GreenSpaces.Influence(lat, lon, e.GreenRadiusKm),
		Crowd:  e.CrowdHotspots.Influence(lat, lon, e.CrowdRadiusKm),
	}

	if cell, _, ok := e.Grid.Nearest(lat, lon); ok {
		seg.AQI = cell.AQI
		seg.Noise = cell.Noise
		seg.Traffic = cell.Traffic
	} else {
		seg.AQI = exposome.AirAsAQI(e.Field.Value(exposome.LayerAir, lat, lon))
		seg.Noise = e.Field.Value(exposome.LayerNoise, lat, lon)
		seg.Traffic = e.Field.Value(exposome.LayerTraffic, lat, lon)
	}

	return seg
}
