// Package main provides the entrypoint for the CalmRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calmroute/calmroute/internal/api"
	"github.com/calmroute/calmroute/internal/api/middleware"
	"github.com/calmroute/calmroute/internal/app"
	"github.com/calmroute/calmroute/internal/config"
	"github.com/calmroute/calmroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "calmroute-api"

	cfg, err := config.Load(os.Getenv("CALMROUTE_CONFIG"))
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := config.NewLogger(cfg.Log, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CalmRoute API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		ExportInterval: cfg.Telemetry.ExportInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble engine")
	}

	// Serve before the catalogue is loaded; /v1/ops/ready reports 503 until it is.
	job := a.RefreshJob()
	go func() {
		if result := job.Run(ctx); result.Err != nil {
			log.Error().Err(result.Err).Msg("initial catalogue load failed")
		}
		job.Schedule(ctx, cfg.Catalogue.RefreshInterval)
	}()

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		Metrics:       metrics,
		Engine:        a.Engine,
		Store:         a.Store,
		Registry:      a.Registry,
		Instruments:   a.Instruments,
		StandardLimit: middleware.PerMinute(cfg.RateLimit.RequestsPerMinute),
		RouteLimit:    middleware.PerMinute(cfg.RateLimit.RoutesPerMinute),
		RequireTLS:    cfg.App.RequireTLS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
