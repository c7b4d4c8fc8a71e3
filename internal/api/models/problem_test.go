package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123").
		WithDetail("user.lat must be between -90 and 90").
		WithInstance("/v1/routes:compute").
		WithErrors([]models.FieldError{{Field: "user.lat", Message: "out of range", Code: "INVALID_ORIGIN"}})

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Equal(t, "user.lat must be between -90 and 90", p.Detail)
	assert.Equal(t, "/v1/routes:compute", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "INVALID_ORIGIN", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "weights", Message: "must not be negative", Code: "INVALID_WEIGHTS"},
	}).WithInstance("/v1/routes:compute")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, *p, decoded)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		status  int
		typ     string
	}{
		{name: "bad request", problem: models.NewBadRequest("t", "d", nil), status: http.StatusBadRequest, typ: models.ProblemTypeValidation},
		{name: "not found", problem: models.NewNotFound("t", "d"), status: http.StatusNotFound, typ: models.ProblemTypeNotFound},
		{name: "media type", problem: models.NewUnsupportedMediaType("t", "d"), status: http.StatusUnsupportedMediaType, typ: models.ProblemTypeUnsupportedMediaType},
		{name: "rate limited", problem: models.NewTooManyRequests("t", "d"), status: http.StatusTooManyRequests, typ: models.ProblemTypeTooManyRequests},
		{name: "internal", problem: models.NewInternalError("t", "d"), status: http.StatusInternalServerError, typ: models.ProblemTypeInternal},
		{name: "unavailable", problem: models.NewServiceUnavailable("t", "d"), status: http.StatusServiceUnavailable, typ: models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "t", tt.problem.TraceID)
		})
	}
}
