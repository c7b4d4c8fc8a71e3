// Package app assembles the engine, catalogue store and providers from
// configuration. The api, worker and CLI binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/config"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/load"
	"github.com/calmroute/calmroute/internal/provider/resilience"
	"github.com/calmroute/calmroute/internal/telemetry"
	"github.com/calmroute/calmroute/internal/worker"
)

// ErrNoCatalogueSource indicates that neither a catalogue path nor a URL is configured.
var ErrNoCatalogueSource = errors.New("no catalogue source configured")

// App holds the assembled components.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Engine      *engine.Engine
	Store       *catalogue.Store
	Loader      *catalogue.Loader
	Registry    *resilience.Registry
	Instruments *telemetry.Instruments
}

// New builds the components described by cfg. The catalogue is not loaded;
// call Loader.Reload or run a refresh job.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	eng, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := resilience.NewRegistry()
	source, err := NewSource(cfg.Catalogue, registry)
	if err != nil {
		return nil, err
	}

	instruments, err := telemetry.NewInstruments()
	if err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	store := catalogue.NewStore()
	return &App{
		Config:      cfg,
		Logger:      logger,
		Engine:      eng,
		Store:       store,
		Loader:      catalogue.NewLoader(source, store, logger.With().Str("component", "catalogue").Logger()),
		Registry:    registry,
		Instruments: instruments,
	}, nil
}

// NewEngine builds the engine alone, from the exposome and load settings.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*engine.Engine, error) {
	field, err := newField(cfg.Exposome, logger)
	if err != nil {
		return nil, err
	}

	var ref *exposome.Reference
	if cfg.Exposome.ReferencePath != "" {
		ref, err = readFile(cfg.Exposome.ReferencePath, exposome.LoadReference)
		if err != nil {
			return nil, fmt.Errorf("load reference data: %w", err)
		}
	}

	var loads load.Table
	if cfg.Load.TablePath != "" {
		loads, err = readFile(cfg.Load.TablePath, load.Decode)
		if err != nil {
			return nil, fmt.Errorf("load table: %w", err)
		}
	}

	return engine.New(engine.Config{
		Field:           field,
		Reference:       ref,
		Loads:           loads,
		SynthesizeLoads: cfg.Load.Synthesize,
		Logger:          logger.With().Str("component", "engine").Logger(),
	})
}

// NewSource picks the catalogue source: a feature server when a URL is set,
// otherwise a local file.
func NewSource(cfg config.CatalogueConfig, registry *resilience.Registry) (catalogue.Source, error) {
	switch {
	case cfg.URL != "":
		return catalogue.NewArcGISSource(catalogue.ArcGISConfig{
			QueryURL: cfg.URL,
			PageSize: cfg.PageSize,
			Timeout:  cfg.Timeout,
			Registry: registry,
		}), nil
	case cfg.Path != "":
		return catalogue.FileSource{Path: cfg.Path}, nil
	default:
		return nil, ErrNoCatalogueSource
	}
}

// RefreshJob returns a refresh job over the app's loader.
func (a *App) RefreshJob() *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Timeout:     a.Config.Catalogue.Timeout,
			MinPrograms: a.Config.Catalogue.MinPrograms,
		},
		Logger:      a.Logger.With().Str("component", "refresh").Logger(),
		Loader:      a.Loader,
		Instruments: a.Instruments,
	})
}

// LoadCatalogue performs the initial catalogue load.
func (a *App) LoadCatalogue(ctx context.Context) error {
	result := a.RefreshJob().Run(ctx)
	return result.Err
}

func newField(cfg config.ExposomeConfig, logger zerolog.Logger) (exposome.Source, error) {
	base := exposome.NewField()
	if cfg.StationsPath == "" {
		return base, nil
	}

	snap, err := readFile(cfg.StationsPath, exposome.LoadStationSnapshot)
	if err != nil {
		return nil, fmt.Errorf("load station snapshot: %w", err)
	}
	overlay := exposome.NewStationOverlay(base, snap, exposome.DefaultInterpolationConfig())
	logger.Info().
		Str("source", snap.Source).
		Int("stations", overlay.StationCount()).
		Msg("station overlay enabled")
	return overlay, nil
}

func readFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return decode(f)
}
