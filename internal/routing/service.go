package routing

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Environment supplies exposome samples, green spaces and crowd hotspots.
	Environment Environment

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service builds and scores routes. It holds no mutable state.
type Service struct {
	env    *Environment
	logger zerolog.Logger
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		env:    cfg.Environment.withDefaults(),
		logger: cfg.Logger,
	}
}

// Environment returns the environment routes are sampled from.
func (s *Service) Environment() *Environment {
	return s.env
}

// Route builds and scores the route for req.Profile. The score is reconciled
// against the balanced candidate so that lowStress ≤ balanced ≤ fastest.
func (s *Service) Route(req Request) (*ScoredRoute, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	profile, err := ParseProfile(string(req.Profile))
	if err != nil {
		return nil, &Error{Code: "INVALID_PROFILE", Message: "invalid routing profile", Err: err}
	}
	req.Profile = profile

	route, err := s.candidate(req, req.Profile)
	if err != nil {
		return nil, err
	}
	if req.Profile != ProfileBalanced {
		balanced, err := s.candidate(req, ProfileBalanced)
		if err != nil {
			return nil, err
		}
		reconcile(route, balanced.BurdenScore)
	}
	route.Explanation = Explain(route.Profile, route.BurdenScore, route.DurationMinutes)

	s.logger.Debug().
		Str("route_id", route.ID).
		Str("profile", string(route.Profile)).
		Str("mode", string(route.Mode)).
		Float64("burden", route.BurdenScore).
		Float64("duration_min", route.DurationMinutes).
		Msg("route scored")

	return route, nil
}

// RoutesAll returns [fastest, lowStress, balanced] for the request; the
// request's Profile is ignored.
func (s *Service) RoutesAll(req Request) ([]*ScoredRoute, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	byProfile := make(map[Profile]*ScoredRoute, len(Profiles))
	for _, p := range Profiles {
		route, err := s.candidate(req, p)
		if err != nil {
			return nil, err
		}
		byProfile[p] = route
	}

	balanced := byProfile[ProfileBalanced].BurdenScore
	routes := make([]*ScoredRoute, 0, len(Profiles))
	for _, p := range Profiles {
		route := byProfile[p]
		reconcile(route, balanced)
		route.Explanation = Explain(route.Profile, route.BurdenScore, route.DurationMinutes)
		routes = append(routes, route)
	}

	s.logger.Debug().
		Float64("fastest", routes[0].BurdenScore).
		Float64("low_stress", routes[1].BurdenScore).
		Float64("balanced", routes[2].BurdenScore).
		Msg("routes scored")

	return routes, nil
}

// BurdenAlong scores a route's layer averages under exposome settings.
func (s *Service) BurdenAlong(route *ScoredRoute, settings exposome.Settings) (BurdenSummary, error) {
	if route == nil || len(route.Segments) == 0 {
		return BurdenSummary{}, errors.New("route has no segments")
	}
	if err := settings.Validate(); err != nil {
		return BurdenSummary{}, err
	}

	averages := route.LayerAverages
	if averages == nil {
		averages = layerAverages(route.Segments)
	}
	out := make(map[exposome.Layer]float64, len(averages))
	for l, v := range averages {
		out[l] = v
	}

	return BurdenSummary{
		Score:         burden.Composite(out, settings),
		LayerAverages: out,
	}, nil
}

func (s *Service) candidate(req Request, profile Profile) (*ScoredRoute, error) {
	req.Profile = profile
	waypoints := s.env.Waypoints(req.Origin, req.Destination, profile)
	return s.env.Score(req, waypoints)
}

// reconcile keeps fastest at or above and lowStress at or below the balanced score.
func reconcile(route *ScoredRoute, balanced float64) {
	switch route.Profile {
	case ProfileFastest:
		if route.BurdenScore < balanced {
			route.BurdenScore = balanced
		}
	case ProfileLowStress:
		if route.BurdenScore > balanced {
			route.BurdenScore = balanced
		}
	}
}

func (s *Service) validate(req Request) error {
	if err := req.Origin.Validate(); err != nil {
		return &Error{Code: "INVALID_ORIGIN", Message: "invalid origin coordinates", Err: err}
	}
	if err := req.Destination.Validate(); err != nil {
		return &Error{Code: "INVALID_DESTINATION", Message: "invalid destination coordinates", Err: err}
	}
	if _, ok := req.Mode.SpeedMph(); !ok {
		return &Error{Code: "INVALID_MODE", Message: "invalid travel mode", Err: fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)}
	}
	if err := req.Weights.Validate(); err != nil {
		return &Error{Code: "INVALID_WEIGHTS", Message: "invalid burden weights", Err: err}
	}
	return nil
}
