// Package overlay renders exposome grids, reference sites and routes as
// GeoJSON for map clients.
package overlay

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/routing"
	"github.com/calmroute/calmroute/internal/spatial"
)

// MaxGridSide bounds rows and columns for a grid overlay.
const MaxGridSide = 100

// ErrInvalidGrid indicates a non-positive or oversized grid.
var ErrInvalidGrid = errors.New("invalid grid dimensions")

// Grid samples one layer over a rows×cols lattice and returns one point
// feature per node. Air nodes also carry the value as AQI.
func Grid(src exposome.Source, bounds exposome.Bounds, layer exposome.Layer, rows, cols int) (*geojson.FeatureCollection, error) {
	if !layer.Valid() {
		return nil, fmt.Errorf("%w: %q", exposome.ErrUnknownLayer, layer)
	}
	if rows <= 0 || cols <= 0 || rows > MaxGridSide || cols > MaxGridSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}

	points := exposome.GenerateGrid(bounds, rows, cols)
	fc := &geojson.FeatureCollection{
		BBox:     geom.NewBounds(geom.XY).Set(bounds.LonMin, bounds.LatMin, bounds.LonMax, bounds.LatMax),
		Features: make([]*geojson.Feature, 0, len(points)),
	}
	for _, p := range points {
		v := src.Value(layer, p.Lat, p.Lon)
		props := map[string]interface{}{
			"layer": string(layer),
			"value": v,
			"row":   p.Row,
			"col":   p.Col,
		}
		if layer == exposome.LayerAir {
			props["aqi"] = exposome.AirAsAQI(v)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.ID,
			Geometry:   point(p.Lat, p.Lon),
			Properties: props,
		})
	}
	return fc, nil
}

// Sites returns the reference sites as point features tagged with kind.
func Sites(kind string, sites []spatial.Site) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(sites))}
	for _, s := range sites {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.ID,
			Geometry: point(s.Lat, s.Lon),
			Properties: map[string]interface{}{
				"kind":      kind,
				"name":      s.Name,
				"magnitude": s.Magnitude,
			},
		})
	}
	return fc
}

// Route returns the route as a LineString feature with its scores attached.
func Route(route *routing.ScoredRoute) (*geojson.Feature, error) {
	if route == nil || len(route.Waypoints) < 2 {
		return nil, errors.New("route needs at least two waypoints")
	}

	ls := geom.NewLineStringFlat(geom.XY, flatCoords(route.Waypoints))
	layers := make(map[string]interface{}, len(route.LayerAverages))
	for l, v := range route.LayerAverages {
		layers[string(l)] = v
	}

	return &geojson.Feature{
		ID:       route.ID,
		Geometry: ls,
		BBox:     ls.Bounds(),
		Properties: map[string]interface{}{
			"profile":         string(route.Profile),
			"mode":            string(route.Mode),
			"burdenScore":     route.BurdenScore,
			"durationMinutes": route.DurationMinutes,
			"distanceMiles":   route.DistanceMiles,
			"layerAverages":   layers,
			"explanation":     route.Explanation,
		},
	}, nil
}

// Routes returns every route in one collection, in order.
func Routes(routes []*routing.ScoredRoute) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(routes))}
	for _, r := range routes {
		f, err := Route(r)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}

// Polyline decodes an encoded polyline into a LineString feature.
func Polyline(encoded string) (*geojson.Feature, error) {
	points, err := geo.DecodePolyline(encoded)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, errors.New("polyline needs at least two points")
	}

	ls := geom.NewLineStringFlat(geom.XY, flatCoords(points))
	return &geojson.Feature{
		Geometry: ls,
		BBox:     ls.Bounds(),
		Properties: map[string]interface{}{
			"points": len(points),
		},
	}, nil
}

// GeoJSON coordinates are longitude first.
func point(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

func flatCoords(points []geo.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lon, p.Lat)
	}
	return flat
}
