package models

import (
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/routing"
)

// RouteComputeRequest is the body of POST /v1/routes:compute.
type RouteComputeRequest struct {
	User      Point  `json:"user"`
	ProgramID int64  `json:"programId"`
	Mode      string `json:"mode"`

	// Profile selects one route; empty returns all three profiles.
	Profile string `json:"profile,omitempty"`

	// Weights default to neutral when omitted.
	Weights *burden.Weights `json:"weights,omitempty"`

	// Settings, when present, adds an exposome composite to each route.
	Settings *exposome.Settings `json:"settings,omitempty"`
}

// RouteComputeResponse lists computed routes.
type RouteComputeResponse struct {
	GeneratedAt Timestamp     `json:"generatedAt"`
	ProgramID   int64         `json:"programId"`
	Routes      []RouteOption `json:"routes"`
}

// RouteOption is one scored route with its geometry.
type RouteOption struct {
	routing.ScoredRoute

	// Polyline is the waypoint path in Google polyline encoding.
	Polyline string `json:"polyline"`

	// GeoJSON is the path as a LineString feature.
	GeoJSON *geojson.Feature `json:"geojson"`

	// Exposome is the composite under the requested settings.
	Exposome *routing.BurdenSummary `json:"exposome,omitempty"`
}
