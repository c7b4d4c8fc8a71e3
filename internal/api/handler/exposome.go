package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/api/response"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/overlay"
	"github.com/calmroute/calmroute/internal/spatial"
)

// DefaultGridSide is the rows and columns used when a grid request omits them.
const DefaultGridSide = 12

// The synthetic field is deterministic, so overlays can be cached by clients.
const overlayMaxAge = 10 * time.Minute

// ExposomeHandler serves map overlays.
type ExposomeHandler struct {
	engine *engine.Engine
	logger zerolog.Logger
}

// NewExposomeHandler creates a new ExposomeHandler.
func NewExposomeHandler(eng *engine.Engine, logger zerolog.Logger) *ExposomeHandler {
	return &ExposomeHandler{engine: eng, logger: logger}
}

// Grid handles GET /v1/exposome/grid?layer=air&rows=12&cols=12.
func (h *ExposomeHandler) Grid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	layer := exposome.LayerAir
	if v := q.Get("layer"); v != "" {
		parsed, err := exposome.ParseLayer(v)
		if err != nil {
			writeEngineError(w, r, h.logger, err)
			return
		}
		layer = parsed
	}

	rows, ok := intParam(w, r, "rows", DefaultGridSide)
	if !ok {
		return
	}
	cols, ok := intParam(w, r, "cols", DefaultGridSide)
	if !ok {
		return
	}

	fc, err := overlay.Grid(h.engine.Field(), h.engine.Reference().Bounds, layer, rows, cols)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	response.Cacheable(w, overlayMaxAge)
	response.GeoJSON(w, r, fc)
}

// Sites handles GET /v1/exposome/sites/{kind}, where kind is green or crowd.
func (h *ExposomeHandler) Sites(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var sites []spatial.Site
	switch kind {
	case "green":
		sites = h.engine.Reference().GreenSpaces
	case "crowd":
		sites = h.engine.Reference().CrowdHotspots
	default:
		response.NotFound(w, r, "unknown site kind "+strconv.Quote(kind))
		return
	}

	response.Cacheable(w, overlayMaxAge)
	response.GeoJSON(w, r, overlay.Sites(kind, sites))
}

func intParam(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		response.BadRequest(w, r, name+" must be an integer", []models.FieldError{{Field: name, Message: "must be an integer"}})
		return 0, false
	}
	return n, true
}
