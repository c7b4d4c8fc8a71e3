package routing

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
)

// routeNamespace scopes route ids so identical requests produce identical ids.
var routeNamespace = uuid.MustParse("5b0c7c1e-3f4d-4a8e-9b2a-6f1d2e7c9a10")

// AdjustScore applies the profile's shaping to an average segment burden.
func AdjustScore(profile Profile, avg float64) float64 {
	switch profile {
	case ProfileFastest:
		return math.Min(1, avg*1.3+0.15)
	case ProfileLowStress:
		return math.Max(0.1, avg*0.6-0.1)
	default:
		return math.Min(0.8, math.Max(0.2, avg*0.9+0.1))
	}
}

// Score samples each segment midpoint of the waypoints and builds an
// unreconciled route. Explanation is left empty.
func (e *Environment) Score(req Request, waypoints []geo.Point) (*ScoredRoute, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route needs at least two waypoints, got %d", len(waypoints))
	}
	speed, ok := req.Mode.SpeedMph()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	segments := make([]Segment, 0, len(waypoints)-1)
	var distance, total float64
	for i := 0; i+1 < len(waypoints); i++ {
		a, b := waypoints[i], waypoints[i+1]
		distance += geo.DistanceMiles(a, b)

		mid := geo.Interpolate(a, b, 0.5)
		seg := e.Sample(mid.Lat, mid.Lon)
		seg.Burden = burden.Segment(seg.Inputs(), req.Weights)
		total += seg.Burden
		segments = append(segments, seg)
	}

	avg := total / float64(len(segments))
	averages := layerAverages(segments)

	return &ScoredRoute{
		ID:              routeID(req),
		Profile:         req.Profile,
		Mode:            req.Mode,
		Waypoints:       waypoints,
		Segments:        segments,
		DistanceMiles:   distance,
		DurationMinutes: distance / speed * 60,
		AverageBurden:   avg,
		BurdenScore:     AdjustScore(req.Profile, avg),
		LayerAverages:   averages,
		AverageAQI:      averages[exposome.LayerAir] * exposome.MaxAQI,
	}, nil
}

// layerAverages returns the per-layer mean across segments. Air is reported
// on [0, 1] as mean AQI / 300.
func layerAverages(segments []Segment) map[exposome.Layer]float64 {
	sums := make(map[exposome.Layer]float64, len(exposome.AllLayers))
	for _, s := range segments {
		sums[exposome.LayerAir] += s.AQI / exposome.MaxAQI
		sums[exposome.LayerNoise] += s.Noise
		sums[exposome.LayerHeat] += s.Heat
		sums[exposome.LayerGreen] += s.Green
		sums[exposome.LayerSafety] += s.Safety
		sums[exposome.LayerCrowd] += s.Crowd
		sums[exposome.LayerTraffic] += s.Traffic
	}
	n := float64(len(segments))
	for l := range sums {
		sums[l] /= n
	}
	return sums
}

func routeID(req Request) string {
	key := fmt.Sprintf("%s|%s|%.6f,%.6f|%.6f,%.6f|%.4f,%.4f,%.4f,%.4f,%.4f",
		req.Profile, req.Mode,
		req.Origin.Lat, req.Origin.Lon,
		req.Destination.Lat, req.Destination.Lon,
		req.Weights.Crowd, req.Weights.Noise, req.Weights.Green, req.Weights.Air, req.Weights.Traffic,
	)
	return uuid.NewSHA1(routeNamespace, []byte(key)).String()
}
