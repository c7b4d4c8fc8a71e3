package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calmroute/calmroute/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func call(h http.Handler, remoteAddr, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/programs:query", http.NoBody)
	req.RemoteAddr = remoteAddr
	if clientID != "" {
		req.Header.Set(middleware.ClientIDHeader, clientID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByClient_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByClient(middleware.PerMinute(3))(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call(handler, "10.0.0.1:12345", "").Code, "request %d", i+1)
	}

	rec := call(handler, "10.0.0.1:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitByClient_Keys(t *testing.T) {
	tests := []struct {
		name       string
		first      [2]string
		second     [2]string
		secondCode int
	}{
		{
			name:       "different IPs are separate",
			first:      [2]string{"172.16.0.1:1", ""},
			second:     [2]string{"172.16.0.2:1", ""},
			secondCode: http.StatusOK,
		},
		{
			name:       "same client across networks shares a quota",
			first:      [2]string{"172.16.1.1:1", "install-a"},
			second:     [2]string{"172.16.1.2:1", "install-a"},
			secondCode: http.StatusTooManyRequests,
		},
		{
			name:       "different clients behind one IP are separate",
			first:      [2]string{"172.16.2.1:1", "install-b"},
			second:     [2]string{"172.16.2.1:1", "install-c"},
			secondCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RateLimitByClient(middleware.PerMinute(1))(okHandler())

			assert.Equal(t, http.StatusOK, call(handler, tt.first[0], tt.first[1]).Code)
			assert.Equal(t, tt.secondCode, call(handler, tt.second[0], tt.second[1]).Code)
		})
	}
}

func TestRateLimitByClient_DisabledWhenZero(t *testing.T) {
	handler := middleware.RateLimitByClient(middleware.PerMinute(0))(okHandler())

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, call(handler, "10.9.9.9:1", "").Code)
	}
}

func TestRateLimitExceededResponse_Format(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 30 * time.Second}
	handler := middleware.RequestID(middleware.RateLimitByClient(cfg)(okHandler()))

	assert.Equal(t, http.StatusOK, call(handler, "203.0.113.1:12345", "").Code)
	rec := call(handler, "203.0.113.1:12345", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "/v1/programs:query")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 30, middleware.RouteRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StandardRateLimit.WindowLength)
}
