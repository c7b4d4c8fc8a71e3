package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/api/response"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/load"
	"github.com/calmroute/calmroute/internal/telemetry"
)

// ProgramHandler serves catalogue queries, recommendations and program load.
type ProgramHandler struct {
	engine      *engine.Engine
	store       *catalogue.Store
	instruments *telemetry.Instruments
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProgramHandler creates a new ProgramHandler. instruments may be nil.
func NewProgramHandler(eng *engine.Engine, store *catalogue.Store, instruments *telemetry.Instruments, logger zerolog.Logger) *ProgramHandler {
	return &ProgramHandler{
		engine:      eng,
		store:       store,
		instruments: instruments,
		logger:      logger,
		now:         time.Now,
	}
}

// Query handles POST /v1/programs:query.
func (h *ProgramHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.ProgramQueryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Limit < 0 {
		response.BadRequest(w, r, "limit must not be negative", []models.FieldError{{Field: "limit", Message: "must be >= 0"}})
		return
	}
	cat, ok := currentCatalogue(w, r, h.store)
	if !ok {
		return
	}

	opts := engine.QueryOptions{User: models.PointPtr(req.User)}
	if req.ArrivalAt != nil {
		opts.ArrivalAt = time.Time(*req.ArrivalAt)
	}
	res, err := h.engine.Query(cat, req.Filter, opts)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	resp := models.ProgramQueryResponse{
		Programs:   res.Visible,
		Total:      len(res.Visible),
		Cities:     res.Cities,
		Categories: res.Categories,
	}
	if req.Limit > 0 && len(resp.Programs) > req.Limit {
		resp.Programs = resp.Programs[:req.Limit]
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Recommend handles POST /v1/recommendations.
func (h *ProgramHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.ProgramQueryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Limit < 0 {
		response.BadRequest(w, r, "limit must not be negative", []models.FieldError{{Field: "limit", Message: "must be >= 0"}})
		return
	}
	cat, ok := currentCatalogue(w, r, h.store)
	if !ok {
		return
	}

	recs, err := h.engine.Recommend(cat, req.Filter, models.PointPtr(req.User))
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	h.instruments.RecordRecommendations(r.Context(), len(recs))

	resp := models.RecommendationsResponse{Recommendations: recs, Total: len(recs)}
	if req.Limit > 0 && len(resp.Recommendations) > req.Limit {
		resp.Recommendations = resp.Recommendations[:req.Limit]
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Get handles GET /v1/programs/{programId}.
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}
	cat, ok := currentCatalogue(w, r, h.store)
	if !ok {
		return
	}

	p, err := h.engine.Program(cat, id)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// Load handles GET /v1/programs/{programId}/load. The optional at parameter
// is RFC 3339 and defaults to now; threshold defaults to load.DefaultThreshold.
func (h *ProgramHandler) Load(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}

	at := h.now()
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, r, "at must be an RFC 3339 timestamp", []models.FieldError{{Field: "at", Message: err.Error()}})
			return
		}
		at = parsed
	}

	threshold := load.DefaultThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			response.BadRequest(w, r, "threshold must be a number in [0, 1]", []models.FieldError{{Field: "threshold", Message: "must be in [0, 1]"}})
			return
		}
		threshold = parsed
	}

	cat, ok := currentCatalogue(w, r, h.store)
	if !ok {
		return
	}

	current, err := h.engine.LoadAt(cat, id, at)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	wait, found, err := h.engine.NextLowLoad(cat, id, at, threshold)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	resp := models.ProgramLoad{
		ProgramID: id,
		At:        models.Timestamp(at),
		Load:      current,
		Threshold: threshold,
	}
	if found {
		resp.NextLow = models.NewLowSlot(wait)
	}
	response.JSON(w, r, http.StatusOK, resp)
}

func programID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "programId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.BadRequest(w, r, "programId must be an integer", []models.FieldError{{Field: "programId", Message: "must be an integer"}})
		return 0, false
	}
	return id, true
}
