package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/api/response"
	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/overlay"
	"github.com/calmroute/calmroute/internal/routing"
	"github.com/calmroute/calmroute/internal/telemetry"
)

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	engine      *engine.Engine
	store       *catalogue.Store
	instruments *telemetry.Instruments
	logger      zerolog.Logger
}

// NewRouteHandler creates a new RouteHandler. instruments may be nil.
func NewRouteHandler(eng *engine.Engine, store *catalogue.Store, instruments *telemetry.Instruments, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		engine:      eng,
		store:       store,
		instruments: instruments,
		logger:      logger,
	}
}

// ComputeRoutes handles POST /v1/routes:compute. Without a profile it
// returns the fastest, lowStress and balanced routes in that order.
func (h *RouteHandler) ComputeRoutes(w http.ResponseWriter, r *http.Request) {
	var input models.RouteComputeRequest
	if !decode(w, r, &input) {
		return
	}
	if input.ProgramID == 0 {
		response.BadRequest(w, r, "programId is required", []models.FieldError{{Field: "programId", Message: "required"}})
		return
	}
	cat, ok := currentCatalogue(w, r, h.store)
	if !ok {
		return
	}

	req := engine.RouteRequest{
		User:      input.User.Geo(),
		ProgramID: input.ProgramID,
		Mode:      routing.TravelMode(input.Mode),
		Weights:   burden.NeutralWeights(),
	}
	if input.Weights != nil {
		req.Weights = *input.Weights
	}

	var routes []*routing.ScoredRoute
	var err error
	if input.Profile == "" {
		routes, err = h.engine.RoutesAll(cat, req)
	} else {
		req.Profile = routing.Profile(input.Profile)
		if p, perr := routing.ParseProfile(input.Profile); perr == nil {
			req.Profile = p
		}
		var route *routing.ScoredRoute
		route, err = h.engine.Route(cat, req)
		routes = []*routing.ScoredRoute{route}
	}
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	resp := models.RouteComputeResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		ProgramID:   input.ProgramID,
		Routes:      make([]models.RouteOption, 0, len(routes)),
	}
	for _, route := range routes {
		opt, err := h.option(route, input)
		if err != nil {
			writeEngineError(w, r, h.logger, err)
			return
		}
		h.instruments.RecordRoute(r.Context(), string(route.Profile), string(route.Mode), route.BurdenScore)
		resp.Routes = append(resp.Routes, opt)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func (h *RouteHandler) option(route *routing.ScoredRoute, input models.RouteComputeRequest) (models.RouteOption, error) {
	feature, err := overlay.Route(route)
	if err != nil {
		return models.RouteOption{}, err
	}
	opt := models.RouteOption{
		ScoredRoute: *route,
		Polyline:    geo.EncodePolyline(route.Waypoints),
		GeoJSON:     feature,
	}
	if input.Settings != nil {
		summary, err := h.engine.BurdenAlong(route, *input.Settings)
		if err != nil {
			return models.RouteOption{}, err
		}
		opt.Exposome = &summary
	}
	return opt, nil
}
