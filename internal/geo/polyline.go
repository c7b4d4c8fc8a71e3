package geo

import (
	"errors"
	"math"
)

// ErrBadPolyline indicates an encoded polyline that ends mid-value.
var ErrBadPolyline = errors.New("truncated polyline")

// polylineScale is five decimal places, the precision map clients expect.
const polylineScale = 1e5

// EncodePolyline encodes points with the Google polyline algorithm.
func EncodePolyline(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLon int
	for _, p := range points {
		lat := int(math.Round(p.Lat * polylineScale))
		lon := int(math.Round(p.Lon * polylineScale))

		buf = appendPolylineValue(buf, lat-prevLat)
		buf = appendPolylineValue(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

// DecodePolyline decodes a polyline produced by EncodePolyline.
func DecodePolyline(encoded string) ([]Point, error) {
	var (
		points   []Point
		lat, lon int
		i        int
	)
	for i < len(encoded) {
		dLat, next, err := readPolylineValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLon, next, err := readPolylineValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lon += dLon
		points = append(points, Point{Lat: float64(lat) / polylineScale, Lon: float64(lon) / polylineScale})
	}
	return points, nil
}

func appendPolylineValue(buf []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((u&0x1f)|0x20)+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

func readPolylineValue(s string, i int) (int, int, error) {
	var result, shift int
	for {
		if i >= len(s) {
			return 0, 0, ErrBadPolyline
		}
		b := int(s[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}
