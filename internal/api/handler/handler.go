// Package handler provides HTTP handlers for the CalmRoute API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/api/middleware"
	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/api/response"
	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/overlay"
	"github.com/calmroute/calmroute/internal/recommend"
	"github.com/calmroute/calmroute/internal/routing"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// currentCatalogue returns the installed catalogue or writes a 503.
func currentCatalogue(w http.ResponseWriter, r *http.Request, store *catalogue.Store) (*catalogue.Catalogue, bool) {
	cat := store.Catalogue()
	if cat == nil {
		response.ServiceUnavailable(w, r, "program catalogue is not loaded yet")
		return nil, false
	}
	return cat, true
}

// writeEngineError maps engine errors to problem responses.
func writeEngineError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var rerr *routing.Error
	switch {
	case errors.As(err, &rerr):
		response.BadRequest(w, r, rerr.Message, []models.FieldError{
			{Field: fieldForCode(rerr.Code), Message: rerr.Error(), Code: rerr.Code},
		})
	case errors.Is(err, engine.ErrUnknownProgram):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, engine.ErrOutOfRangeCoordinate):
		response.BadRequest(w, r, err.Error(), []models.FieldError{
			{Field: "user", Message: err.Error(), Code: "INVALID_COORDINATE"},
		})
	case errors.Is(err, recommend.ErrInvalidFilter):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "filter", Message: err.Error()}})
	case errors.Is(err, burden.ErrInvalidWeights):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "weights", Message: err.Error(), Code: "INVALID_WEIGHTS"}})
	case errors.Is(err, exposome.ErrInvalidSettings):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "settings", Message: err.Error()}})
	case errors.Is(err, exposome.ErrUnknownLayer):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "layer", Message: err.Error()}})
	case errors.Is(err, overlay.ErrInvalidGrid):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "rows", Message: err.Error()}})
	default:
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func fieldForCode(code string) string {
	switch code {
	case "INVALID_ORIGIN":
		return "user"
	case "INVALID_DESTINATION":
		return "programId"
	case "INVALID_MODE":
		return "mode"
	case "INVALID_WEIGHTS":
		return "weights"
	case "INVALID_PROFILE":
		return "profile"
	}
	return ""
}
