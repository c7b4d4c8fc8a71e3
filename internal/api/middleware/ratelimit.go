package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/calmroute/calmroute/internal/api/models"
)

// ClientIDHeader identifies an installation of the finder app. Requests that
// carry it share a quota across networks.
const ClientIDHeader = "X-Client-Id"

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// PerMinute returns a limit of n requests per minute.
func PerMinute(n int) RateLimitConfig {
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// Default rate limits.
var (
	// RouteRateLimit applies to route computation and the exposome grid.
	RouteRateLimit = PerMinute(30)

	// StandardRateLimit applies to catalogue and recommendation endpoints.
	StandardRateLimit = PerMinute(100)
)

// RateLimitByClient limits requests per client id, falling back to the
// client IP when the header is absent.
func RateLimitByClient(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByClientOrIP),
		httprate.WithLimitHandler(rateLimitExceeded(cfg.WindowLength)),
	)
}

func keyByClientOrIP(r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
		return "client:" + id, nil
	}
	return httprate.KeyByRealIP(r)
}

func rateLimitExceeded(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path

		// httprate does not expose the reset time; a full window is the upper bound.
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
