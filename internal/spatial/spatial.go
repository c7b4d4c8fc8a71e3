// Package spatial provides linear-scan point sets for green spaces, crowd
// hotspots and the gridded environment. Sets are read-only after construction.
package spatial

import (
	"math"

	"github.com/calmroute/calmroute/internal/geo"
)

// Recommended influence radii.
const (
	GreenRadiusKm = 0.8
	CrowdRadiusKm = 1.6
)

// Site is a point with a magnitude in [0, 1] (park size, crowd density).
type Site struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Lat       float64 `json:"lat" yaml:"lat"`
	Lon       float64 `json:"lon" yaml:"lon"`
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`
}

// PointSet is an ordered collection of sites.
type PointSet struct {
	sites []Site
}

// NewPointSet copies sites into a new set, keeping insertion order.
func NewPointSet(sites []Site) *PointSet {
	s := make([]Site, len(sites))
	copy(s, sites)
	return &PointSet{sites: s}
}

// Len returns the number of sites.
func (s *PointSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sites)
}

// Sites returns a copy of the sites in insertion order.
func (s *PointSet) Sites() []Site {
	if s == nil {
		return nil
	}
	out := make([]Site, len(s.sites))
	copy(out, s.sites)
	return out
}

// Nearest returns the closest site and its distance in kilometres.
// Equidistant sites resolve to the one inserted first.
func (s *PointSet) Nearest(lat, lon float64) (Site, float64, bool) {
	if s.Len() == 0 {
		return Site{}, 0, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i, site := range s.sites {
		d := geo.GreatCircleKm(lat, lon, site.Lat, site.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.sites[best], bestDist, true
}

// Influence returns the maximum of magnitude·(1 − d/radius) over sites closer
// than radiusKm, or 0 when none are.
func (s *PointSet) Influence(lat, lon, radiusKm float64) float64 {
	if s.Len() == 0 || radiusKm <= 0 {
		return 0
	}

	var influence float64
	for _, site := range s.sites {
		d := geo.GreatCircleKm(lat, lon, site.Lat, site.Lon)
		if d >= radiusKm {
			continue
		}
		influence = math.Max(influence, site.Magnitude*(1-d/radiusKm))
	}
	return math.Min(1, math.Max(0, influence))
}

// Cell is one node of the environment grid. AQI is on [0, 300]; noise and
// traffic are on [0, 1].
type Cell struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	AQI     float64 `json:"aqi"`
	Noise   float64 `json:"noise"`
	Traffic float64 `json:"traffic"`
}

// Grid is a read-only set of environment cells.
type Grid struct {
	cells []Cell
}

// NewGrid copies cells into a grid, keeping insertion order.
func NewGrid(cells []Cell) *Grid {
	c := make([]Cell, len(cells))
	copy(c, cells)
	return &Grid{cells: c}
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.cells)
}

// Cells returns a copy of the cells.
func (g *Grid) Cells() []Cell {
	if g == nil {
		return nil
	}
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Nearest returns the closest cell and its distance in kilometres.
// Equidistant cells resolve to the one inserted first.
func (g *Grid) Nearest(lat, lon float64) (Cell, float64, bool) {
	if g.Len() == 0 {
		return Cell{}, 0, false
	}

	best := -1
	bestDist := math.Inf(1)
	for i, c := range g.cells {
		d := geo.GreatCircleKm(lat, lon, c.Lat, c.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return g.cells[best], bestDist, true
}
