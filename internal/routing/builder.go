package routing

import (
	"math"

	"github.com/calmroute/calmroute/internal/geo"
)

// SegmentCount is the number of segments per route; routes have one more waypoint.
const SegmentCount = 8

type profileRule struct {
	greenPull     float64 // fraction of the offset toward the nearest green space
	greenWithinMi float64
	crowdPush     float64 // fraction of the offset away from the nearest hotspot
	crowdWithinMi float64
	jitterDeg     float64
	salt          float64
}

var profileRules = map[Profile]profileRule{
	ProfileFastest: {
		jitterDeg: 0.01,
		salt:      1,
	},
	ProfileLowStress: {
		greenPull:     0.4,
		greenWithinMi: 2,
		crowdPush:     0.3,
		crowdWithinMi: 1.5,
		jitterDeg:     0.005,
		salt:          2,
	},
	ProfileBalanced: {
		greenPull:     0.15,
		greenWithinMi: 1.5,
		jitterDeg:     0.008,
		salt:          3,
	},
}

// Waypoints returns SegmentCount+1 points from origin to destination shaped by
// the profile. Endpoints are exact; interior points are biased by nearby green
// space and crowd hotspots and then jittered deterministically.
func (e *Environment) Waypoints(origin, destination geo.Point, profile Profile) []geo.Point {
	rule := profileRules[profile]
	points := make([]geo.Point, 0, SegmentCount+1)

	for i := 0; i <= SegmentCount; i++ {
		t := float64(i) / SegmentCount
		mid := geo.Interpolate(origin, destination, t)
		if i == 0 || i == SegmentCount {
			points = append(points, mid)
			continue
		}

		p := mid
		if rule.greenPull > 0 {
			if g, km, ok := e.GreenSpaces.Nearest(mid.Lat, mid.Lon); ok && geo.KmToMiles(km) < rule.greenWithinMi {
				p.Lat += (g.Lat - mid.Lat) * rule.greenPull
				p.Lon += (g.Lon - mid.Lon) * rule.greenPull
			}
		}
		if rule.crowdPush > 0 {
			if c, km, ok := e.CrowdHotspots.Nearest(mid.Lat, mid.Lon); ok && geo.KmToMiles(km) < rule.crowdWithinMi {
				p.Lat += (mid.Lat - c.Lat) * rule.crowdPush
				p.Lon += (mid.Lon - c.Lon) * rule.crowdPush
			}
		}

		jLat, jLon := jitter(mid, i, rule.salt)
		p.Lat += jLat * rule.jitterDeg
		p.Lon += jLon * rule.jitterDeg

		points = append(points, p)
	}

	return points
}

// jitter returns two deterministic offsets in [-0.5, 0.5).
func jitter(p geo.Point, index int, salt float64) (float64, float64) {
	k := float64(index)*0.6180339887 + salt
	return hashUnit(p.Lat*12.9898+p.Lon*78.233+k) - 0.5,
		hashUnit(p.Lat*39.3468+p.Lon*11.1351+k) - 0.5
}

func hashUnit(x float64) float64 {
	v := math.Sin(x) * 43758.5453
	return v - math.Floor(v)
}
