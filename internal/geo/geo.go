// Package geo provides great-circle distance and linear interpolation over
// latitude/longitude pairs.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by GreatCircleKm.
const EarthRadiusKm = 6371.0

// MilesPerKm converts kilometres to statute miles.
const MilesPerKm = 0.621371

// ErrOutOfRangeCoordinate indicates a latitude outside [-90, 90] or a
// longitude outside [-180, 180].
var ErrOutOfRangeCoordinate = errors.New("coordinate out of range")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrOutOfRangeCoordinate for non-finite or out-of-range values.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: non-finite value", ErrOutOfRangeCoordinate)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrOutOfRangeCoordinate, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrOutOfRangeCoordinate, p.Lon)
	}
	return nil
}

// GreatCircleKm returns the Haversine distance between two points in kilometres.
func GreatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm is GreatCircleKm between two points.
func DistanceKm(p, q Point) float64 {
	return GreatCircleKm(p.Lat, p.Lon, q.Lat, q.Lon)
}

// DistanceMiles is DistanceKm converted to miles.
func DistanceMiles(p, q Point) float64 {
	return KmToMiles(DistanceKm(p, q))
}

// KmToMiles converts kilometres to miles.
func KmToMiles(km float64) float64 {
	return km * MilesPerKm
}

// MilesToKm converts miles to kilometres.
func MilesToKm(mi float64) float64 {
	return mi / MilesPerKm
}

// Interpolate returns the point at fraction t along p→q. t is clamped to [0, 1]
// and both endpoints are returned exactly.
func Interpolate(p, q Point, t float64) Point {
	switch {
	case t <= 0:
		return p
	case t >= 1:
		return q
	}
	return Point{
		Lat: p.Lat + (q.Lat-p.Lat)*t,
		Lon: p.Lon + (q.Lon-p.Lon)*t,
	}
}
