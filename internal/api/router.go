// Package api provides the HTTP API for CalmRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/api/handler"
	"github.com/calmroute/calmroute/internal/api/middleware"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/provider/resilience"
	"github.com/calmroute/calmroute/internal/telemetry"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	Engine      *engine.Engine
	Store       *catalogue.Store
	Registry    *resilience.Registry
	Instruments *telemetry.Instruments

	// StandardLimit applies to catalogue endpoints and RouteLimit to route
	// computation and overlays. A zero limit disables limiting.
	StandardLimit middleware.RateLimitConfig
	RouteLimit    middleware.RateLimitConfig

	// RequireTLS rejects plain-HTTP requests that did not arrive via a TLS proxy.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Order matters: the request id must exist before tracing and logging.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Store, cfg.Registry)
	programHandler := handler.NewProgramHandler(cfg.Engine, cfg.Store, cfg.Instruments, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.Engine, cfg.Store, cfg.Instruments, cfg.Logger)
	exposomeHandler := handler.NewExposomeHandler(cfg.Engine, cfg.Logger)

	standardLimit := middleware.RateLimitByClient(cfg.StandardLimit)
	routeLimit := middleware.RateLimitByClient(cfg.RouteLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardLimit)
			r.Post("/programs:query", programHandler.Query)
			r.Post("/recommendations", programHandler.Recommend)
			r.Get("/programs/{programId}", programHandler.Get)
			r.Get("/programs/{programId}/load", programHandler.Load)
		})

		r.Group(func(r chi.Router) {
			r.Use(routeLimit)
			r.Post("/routes:compute", routeHandler.ComputeRoutes)
			r.Get("/exposome/grid", exposomeHandler.Grid)
			r.Get("/exposome/sites/{kind}", exposomeHandler.Sites)
		})
	})

	return r
}
