package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/api"
	"github.com/calmroute/calmroute/internal/api/middleware"
	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
)

const testCatalogue = `{"features": [
	{"attributes": {"OBJECTID": 1, "org_name": "Alpha Clinic", "cat1": "Youth", "city": "Los Angeles",
		"description": "Spanish speaking staff. Telehealth visits available."},
	 "geometry": {"x": -118.25, "y": 34.0789}},
	{"attributes": {"OBJECTID": 2, "name": "Pasadena Wellness", "cat1": "Adults", "city": "Pasadena"},
	 "geometry": {"x": -118.14, "y": 34.14}}
]}`

type routerOptions struct {
	empty      bool
	routeLimit middleware.RateLimitConfig
	requireTLS bool
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()

	eng, err := engine.New(engine.Config{SynthesizeLoads: true, Logger: zerolog.Nop()})
	require.NoError(t, err)

	store := catalogue.NewStore()
	if !opts.empty {
		cat, report, err := catalogue.Load(strings.NewReader(testCatalogue))
		require.NoError(t, err)
		store.Swap(&catalogue.Snapshot{Catalogue: cat, Report: report, Source: "test", LoadedAt: time.Now()})
	}

	return api.NewRouter(api.RouterConfig{
		Version:    "test",
		BuildTime:  "2026-01-01T00:00:00Z",
		Logger:     zerolog.New(io.Discard),
		Engine:     eng,
		Store:      store,
		RouteLimit: opts.routeLimit,
		RequireTLS: opts.requireTLS,
	})
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Endpoints(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		expectedCode int
		expectedType string
	}{
		{name: "health", method: http.MethodGet, target: "/v1/ops/health", expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "ready", method: http.MethodGet, target: "/v1/ops/ready", expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "status", method: http.MethodGet, target: "/v1/ops/status", expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "query", method: http.MethodPost, target: "/v1/programs:query", body: `{"filter": {}}`, expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "recommendations", method: http.MethodPost, target: "/v1/recommendations", body: `{"filter": {"telehealth": true}}`, expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "program", method: http.MethodGet, target: "/v1/programs/1", expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "program load", method: http.MethodGet, target: "/v1/programs/1/load?at=2026-03-02T08:10:00Z", expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "routes", method: http.MethodPost, target: "/v1/routes:compute", body: `{"user": {"lat": 34.05, "lon": -118.25}, "programId": 2, "mode": "driving"}`, expectedCode: http.StatusOK, expectedType: "application/json"},
		{name: "grid", method: http.MethodGet, target: "/v1/exposome/grid?layer=heat&rows=4&cols=4", expectedCode: http.StatusOK, expectedType: "application/geo+json"},
		{name: "sites", method: http.MethodGet, target: "/v1/exposome/sites/green", expectedCode: http.StatusOK, expectedType: "application/geo+json"},
		{name: "unknown program", method: http.MethodGet, target: "/v1/programs/404", expectedCode: http.StatusNotFound, expectedType: "application/problem+json"},
		{name: "bad coordinate", method: http.MethodPost, target: "/v1/programs:query", body: `{"filter": {}, "user": {"lat": 100, "lon": 0}}`, expectedCode: http.StatusBadRequest, expectedType: "application/problem+json"},
		{name: "not found", method: http.MethodGet, target: "/v1/nonexistent", expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, w.Header().Get("Content-Type"))
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

func TestRouter_RecommendationsBody(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	w := do(router, http.MethodPost, "/v1/recommendations", `{"filter": {"telehealth": true}, "user": {"lat": 34.05, "lon": -118.25}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RecommendationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Alpha Clinic", resp.Recommendations[0].Program.Name)
}

func TestRouter_NotReady(t *testing.T) {
	router := newTestRouter(t, routerOptions{empty: true})

	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodGet, "/v1/ops/ready", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodPost, "/v1/programs:query", `{"filter": {}}`).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/ops/health", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/exposome/grid", "").Code, "overlays do not need the catalogue")
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	req := httptest.NewRequest(http.MethodPost, "/v1/programs:query", strings.NewReader("filter=all"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_RouteRateLimit(t *testing.T) {
	router := newTestRouter(t, routerOptions{routeLimit: middleware.PerMinute(2)})

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/exposome/grid?rows=2&cols=2", http.NoBody)
		req.Header.Set(middleware.ClientIDHeader, client)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("dashboard-a"))
	assert.Equal(t, http.StatusOK, send("dashboard-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("dashboard-a"))
	assert.Equal(t, http.StatusOK, send("dashboard-b"))

	// The catalogue endpoints are limited separately.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/programs/1", "").Code)
}

func TestRouter_RequireTLS(t *testing.T) {
	router := newTestRouter(t, routerOptions{requireTLS: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	w := do(router, http.MethodGet, "/v1/ops/health", "")
	assert.True(t, strings.HasPrefix(w.Header().Get("X-Request-Id"), "req_"))

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "dash_7f3a")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "dash_7f3a", w.Header().Get("X-Request-Id"))
}
