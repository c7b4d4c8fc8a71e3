package exposome

import (
	"fmt"
	"math"
)

// Source answers per-layer queries by coordinate. Implementations must be
// deterministic: identical queries return identical values.
type Source interface {
	Value(layer Layer, lat, lon float64) float64
}

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	LatMin float64 `json:"latMin" yaml:"lat_min"`
	LatMax float64 `json:"latMax" yaml:"lat_max"`
	LonMin float64 `json:"lonMin" yaml:"lon_min"`
	LonMax float64 `json:"lonMax" yaml:"lon_max"`
}

// Contains reports whether the point lies inside the rectangle, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// LosAngelesBounds covers the greater Los Angeles area.
var LosAngelesBounds = Bounds{LatMin: 33.7, LatMax: 34.35, LonMin: -118.7, LonMax: -118.0}

// DowntownLA is the reference point the synthetic gradients are anchored to.
var DowntownLA = struct{ Lat, Lon float64 }{Lat: 34.05, Lon: -118.25}

// Field is a synthetic exposome built from coordinate-hash noise and smooth
// gradients around a reference point. It holds no state beyond its constants.
type Field struct {
	refLat float64
	refLon float64
	bounds Bounds
}

var _ Source = (*Field)(nil)

// NewField creates the Los Angeles synthetic field.
func NewField() *Field {
	return &Field{
		refLat: DowntownLA.Lat,
		refLon: DowntownLA.Lon,
		bounds: LosAngelesBounds,
	}
}

// Bounds returns the field's bounding rectangle.
func (f *Field) Bounds() Bounds {
	return f.bounds
}

// Value returns the layer value at a coordinate, clamped to [0, 1].
// Unknown layers yield 0.
func (f *Field) Value(layer Layer, lat, lon float64) float64 {
	n := coordNoise(lat, lon)
	d := math.Hypot(lat-f.refLat, lon-f.refLon) // degrees

	// Noise amplitude is kept small enough that the gradients below never
	// saturate the clamp.
	base := 0.15 + 0.25*n

	var v float64
	switch layer {
	case LayerAir:
		v = base + 0.5*math.Exp(-d)
	case LayerNoise:
		v = base + 0.6*math.Exp(-1.5*d)
	case LayerHeat:
		span := f.bounds.LatMax - f.bounds.LatMin
		v = base + 0.4*clamp01((lat-f.bounds.LatMin)/span)
	case LayerGreen:
		v = 1 - (base + 0.5*math.Exp(-d))
	case LayerSafety:
		v = base + 0.5*math.Exp(-math.Pow(d-0.25, 2)/0.08)
	case LayerCrowd:
		v = 0.5*base + 0.6*math.Exp(-(d*d)/0.01)
	case LayerTraffic:
		v = base + 0.55*math.Exp(-2*d)
	default:
		return 0
	}

	return clamp01(v)
}

// SampleAt returns every layer at the coordinate.
func SampleAt(src Source, lat, lon float64) Sample {
	s := make(Sample, len(AllLayers))
	for _, l := range AllLayers {
		s[l] = src.Value(l, lat, lon)
	}
	return s
}

// coordNoise is a deterministic pseudo-random value in [0, 1).
func coordNoise(lat, lon float64) float64 {
	x := math.Sin(lat*12.9898+lon*78.233) * 43758.5453
	return x - math.Floor(x)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// GridPoint is one node of a sampling lattice.
type GridPoint struct {
	ID  string  `json:"id"`
	Row int     `json:"row"`
	Col int     `json:"col"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GenerateGrid returns rows×cols evenly spaced points covering the bounds,
// corners included. A single row or column sits on the minimum edge.
func GenerateGrid(b Bounds, rows, cols int) []GridPoint {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	points := make([]GridPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := b.LatMin + fraction(r, rows)*(b.LatMax-b.LatMin)
		for c := 0; c < cols; c++ {
			lon := b.LonMin + fraction(c, cols)*(b.LonMax-b.LonMin)
			points = append(points, GridPoint{
				ID:  fmt.Sprintf("%d-%d", r, c),
				Row: r,
				Col: c,
				Lat: lat,
				Lon: lon,
			})
		}
	}
	return points
}

func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}
