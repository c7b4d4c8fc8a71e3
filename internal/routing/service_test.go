package routing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/routing"
)

func newService(t *testing.T) *routing.Service {
	t.Helper()
	ref, err := exposome.LosAngeles()
	require.NoError(t, err)

	field := exposome.NewField()
	return routing.NewService(routing.ServiceConfig{
		Environment: routing.Environment{
			Field:         field,
			Grid:          exposome.BuildEnvironmentGrid(field, ref.EnvironmentGrid),
			GreenSpaces:   ref.GreenSet(),
			CrowdHotspots: ref.CrowdSet(),
		},
		Logger: zerolog.Nop(),
	})
}

func downtownRequest(profile routing.Profile) routing.Request {
	return routing.Request{
		Origin:      geo.Point{Lat: 34.10, Lon: -118.30},
		Destination: geo.Point{Lat: 34.00, Lon: -118.20},
		Mode:        routing.ModeWalking,
		Profile:     profile,
		Weights:     burden.NeutralWeights(),
	}
}

func TestRoutesAll_Ordering(t *testing.T) {
	svc := newService(t)

	routes, err := svc.RoutesAll(downtownRequest(routing.ProfileBalanced))
	require.NoError(t, err)
	require.Len(t, routes, 3)

	fastest, lowStress, balanced := routes[0], routes[1], routes[2]
	assert.Equal(t, routing.ProfileFastest, fastest.Profile)
	assert.Equal(t, routing.ProfileLowStress, lowStress.Profile)
	assert.Equal(t, routing.ProfileBalanced, balanced.Profile)

	assert.LessOrEqual(t, lowStress.BurdenScore, balanced.BurdenScore)
	assert.LessOrEqual(t, balanced.BurdenScore, fastest.BurdenScore)

	for _, r := range routes {
		assert.GreaterOrEqual(t, r.BurdenScore, 0.0)
		assert.LessOrEqual(t, r.BurdenScore, 1.0)
		assert.NotEmpty(t, r.Explanation)
	}
}

func TestRoute_AgreesWithRoutesAll(t *testing.T) {
	svc := newService(t)

	all, err := svc.RoutesAll(downtownRequest(routing.ProfileFastest))
	require.NoError(t, err)

	for i, p := range routing.Profiles {
		t.Run(string(p), func(t *testing.T) {
			single, err := svc.Route(downtownRequest(p))
			require.NoError(t, err)
			assert.Equal(t, all[i], single)
		})
	}
}

func TestRoute_ProfileAlias(t *testing.T) {
	svc := newService(t)

	all, err := svc.RoutesAll(downtownRequest(routing.ProfileFastest))
	require.NoError(t, err)

	for _, alias := range []string{"low-stress", "lowstress"} {
		t.Run(alias, func(t *testing.T) {
			route, err := svc.Route(downtownRequest(routing.Profile(alias)))
			require.NoError(t, err)
			assert.Equal(t, routing.ProfileLowStress, route.Profile)
			assert.Equal(t, all[1], route)
			assert.LessOrEqual(t, route.BurdenScore, all[2].BurdenScore)
		})
	}
}

func TestRoute_Deterministic(t *testing.T) {
	svc := newService(t)

	first, err := svc.Route(downtownRequest(routing.ProfileLowStress))
	require.NoError(t, err)
	second, err := svc.Route(downtownRequest(routing.ProfileLowStress))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestRoute_Shape(t *testing.T) {
	svc := newService(t)
	req := downtownRequest(routing.ProfileBalanced)

	route, err := svc.Route(req)
	require.NoError(t, err)

	require.Len(t, route.Waypoints, routing.SegmentCount+1)
	assert.Len(t, route.Segments, routing.SegmentCount)
	assert.Equal(t, req.Origin, route.Waypoints[0])
	assert.Equal(t, req.Destination, route.Waypoints[routing.SegmentCount])
	assert.Greater(t, route.DistanceMiles, 0.0)
	assert.InDelta(t, route.DistanceMiles/3*60, route.DurationMinutes, 1e-9)

	for _, l := range exposome.AllLayers {
		v, ok := route.LayerAverages[l]
		require.True(t, ok, l)
		assert.GreaterOrEqual(t, v, 0.0, l)
		assert.LessOrEqual(t, v, 1.0, l)
	}
	assert.InDelta(t, route.LayerAverages[exposome.LayerAir]*exposome.MaxAQI, route.AverageAQI, 1e-9)
}

func TestScore_DurationByMode(t *testing.T) {
	svc := newService(t)
	env := svc.Environment()

	req := downtownRequest(routing.ProfileFastest)
	waypoints := env.Waypoints(req.Origin, req.Destination, req.Profile)

	durations := make(map[routing.TravelMode]float64)
	for _, m := range []routing.TravelMode{routing.ModeWalking, routing.ModeTransit, routing.ModeRideshare, routing.ModeDriving} {
		req.Mode = m
		route, err := env.Score(req, waypoints)
		require.NoError(t, err)
		durations[m] = route.DurationMinutes
	}

	assert.Greater(t, durations[routing.ModeWalking], durations[routing.ModeTransit])
	assert.Greater(t, durations[routing.ModeTransit], durations[routing.ModeRideshare])
	assert.Greater(t, durations[routing.ModeRideshare], durations[routing.ModeDriving])
}

func TestRoute_Validation(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name     string
		mutate   func(*routing.Request)
		code     string
		sentinel error
	}{
		{
			name:     "origin latitude",
			mutate:   func(r *routing.Request) { r.Origin.Lat = 91 },
			code:     "INVALID_ORIGIN",
			sentinel: routing.ErrOutOfRangeCoordinate,
		},
		{
			name:     "destination longitude",
			mutate:   func(r *routing.Request) { r.Destination.Lon = -181 },
			code:     "INVALID_DESTINATION",
			sentinel: routing.ErrOutOfRangeCoordinate,
		},
		{
			name:     "mode",
			mutate:   func(r *routing.Request) { r.Mode = "teleport" },
			code:     "INVALID_MODE",
			sentinel: routing.ErrUnknownMode,
		},
		{
			name:     "weights",
			mutate:   func(r *routing.Request) { r.Weights.Air = 2 },
			code:     "INVALID_WEIGHTS",
			sentinel: routing.ErrInvalidWeights,
		},
		{
			name:     "profile",
			mutate:   func(r *routing.Request) { r.Profile = "scenic" },
			code:     "INVALID_PROFILE",
			sentinel: routing.ErrUnknownProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := downtownRequest(routing.ProfileFastest)
			tt.mutate(&req)

			_, err := svc.Route(req)
			require.Error(t, err)

			var rerr *routing.Error
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.code, rerr.Code)
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestBurdenAlong(t *testing.T) {
	svc := newService(t)

	route, err := svc.Route(downtownRequest(routing.ProfileBalanced))
	require.NoError(t, err)

	settings := exposome.DefaultSettings()
	summary, err := svc.BurdenAlong(route, settings)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Score, 0)
	assert.LessOrEqual(t, summary.Score, 100)
	assert.Equal(t, route.LayerAverages, summary.LayerAverages)

	none := exposome.DefaultSettings()
	for l := range none.ActiveLayers {
		none.ActiveLayers[l] = false
	}
	summary, err = svc.BurdenAlong(route, none)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Score)

	nan := exposome.DefaultSettings()
	nan.Weights[exposome.LayerNoise] = math.NaN()
	_, err = svc.BurdenAlong(route, nan)
	assert.ErrorIs(t, err, exposome.ErrInvalidSettings)

	_, err = svc.BurdenAlong(&routing.ScoredRoute{}, settings)
	assert.Error(t, err)
}

func TestAdjustScore(t *testing.T) {
	tests := []struct {
		profile  routing.Profile
		avg      float64
		expected float64
	}{
		{routing.ProfileFastest, 0.5, 0.8},
		{routing.ProfileFastest, 0.9, 1},
		{routing.ProfileLowStress, 0.5, 0.2},
		{routing.ProfileLowStress, 0.1, 0.1},
		{routing.ProfileBalanced, 0, 0.2},
		{routing.ProfileBalanced, 0.5, 0.55},
		{routing.ProfileBalanced, 1, 0.8},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, routing.AdjustScore(tt.profile, tt.avg), 1e-9, "%s %v", tt.profile, tt.avg)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		profile  routing.Profile
		score    float64
		duration float64
		expected string
	}{
		{
			name:     "fastest low",
			profile:  routing.ProfileFastest,
			score:    0.3,
			duration: 12.4,
			expected: "Quick route with minimal stress. Takes you directly to your destination in 12 minutes with low environmental burden.",
		},
		{
			name:     "low stress percentage",
			profile:  routing.ProfileLowStress,
			score:    0.1,
			duration: 30,
			expected: "Most peaceful route with 10% burden. Passes through parks and quiet streets. Ideal for reducing anxiety before your appointment.",
		},
		{
			name:     "balanced high",
			profile:  routing.ProfileBalanced,
			score:    0.8,
			duration: 20.6,
			expected: "Compromise route: 21 minutes with moderate burden. Faster than low-stress but more comfortable than fastest.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, routing.Explain(tt.profile, tt.score, tt.duration))
		})
	}
}

func TestParseProfile(t *testing.T) {
	p, err := routing.ParseProfile("low-stress")
	require.NoError(t, err)
	assert.Equal(t, routing.ProfileLowStress, p)

	_, err = routing.ParseProfile("scenic")
	assert.True(t, errors.Is(err, routing.ErrUnknownProfile))

	_, err = routing.ParseMode("bicycle")
	assert.True(t, errors.Is(err, routing.ErrUnknownMode))
}
