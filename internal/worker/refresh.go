package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/telemetry"
)

// ErrRejectedLoad indicates a load that fetched fine but failed the sanity checks.
var ErrRejectedLoad = errors.New("catalogue load rejected")

// RefreshJob reloads the catalogue from its source.
type RefreshJob struct {
	config      RefreshConfig
	logger      zerolog.Logger
	loader      *catalogue.Loader
	instruments *telemetry.Instruments

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes    int64
	SuccessfulRefresh int64
	FailedRefreshes   int64
	RejectedRefreshes int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration

	// Last accepted load
	LastReport catalogue.LoadReport
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config      RefreshConfig
	Logger      zerolog.Logger
	Loader      *catalogue.Loader
	Instruments *telemetry.Instruments
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:      cfg.Config.withDefaults(),
		logger:      cfg.Logger,
		loader:      cfg.Loader,
		instruments: cfg.Instruments,
		metrics:     &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Source    string
	Report    catalogue.LoadReport
	Installed bool
	Err       error
}

// Run fetches, checks and installs the catalogue. The previous catalogue
// stays in place when any step fails.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	result := j.fetch(ctx, true)
	j.updateMetrics(result)

	if result.Err != nil {
		j.logger.Error().
			Err(result.Err).
			Str("source", result.Source).
			Dur("duration", result.Duration).
			Msg("catalogue refresh failed")
		return result
	}

	j.instruments.RecordCatalogueLoad(ctx, result.Source, result.Report.Loaded, result.Report.Dropped+result.Report.Duplicates)
	j.logger.Info().
		Str("source", result.Source).
		Dur("duration", result.Duration).
		Int("loaded", result.Report.Loaded).
		Int("dropped", result.Report.Dropped).
		Msg("catalogue refresh completed")

	return result
}

// Check fetches and checks the catalogue without installing it.
func (j *RefreshJob) Check(ctx context.Context) error {
	return j.DryRun(ctx).Err
}

// DryRun is Check with the full result, for reporting.
func (j *RefreshJob) DryRun(ctx context.Context) *RefreshResult {
	return j.fetch(ctx, false)
}

func (j *RefreshJob) fetch(ctx context.Context, install bool) *RefreshResult {
	result := &RefreshResult{
		StartTime: time.Now(),
		Source:    j.loader.Source().Name(),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	snap, err := j.loader.Fetch(fetchCtx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Report = snap.Report

	if err := j.accept(snap.Report); err != nil {
		result.Err = err
		return result
	}

	if install {
		j.loader.Install(snap)
		result.Installed = true
	}
	return result
}

func (j *RefreshJob) accept(r catalogue.LoadReport) error {
	if r.Loaded < j.config.MinPrograms {
		return fmt.Errorf("%w: %d programs, want at least %d", ErrRejectedLoad, r.Loaded, j.config.MinPrograms)
	}
	if j.config.MaxDropRatio > 0 && r.Total > 0 {
		ratio := float64(r.Dropped) / float64(r.Total)
		if ratio > j.config.MaxDropRatio {
			return fmt.Errorf("%w: %.0f%% of records dropped", ErrRejectedLoad, ratio*100)
		}
	}
	return nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	switch {
	case result.Err == nil:
		j.metrics.SuccessfulRefresh++
		j.metrics.LastReport = result.Report
	case errors.Is(result.Err, ErrRejectedLoad):
		j.metrics.RejectedRefreshes++
	default:
		j.metrics.FailedRefreshes++
	}
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		RejectedRefreshes:   j.metrics.RejectedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
		LastReport:          j.metrics.LastReport,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"rejected_refreshes":    m.RejectedRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
		"programs_loaded":       m.LastReport.Loaded,
		"records_dropped":       m.LastReport.Dropped,
	}
}

// Schedule runs the job every interval until ctx is done. A non-positive
// interval disables scheduling.
func (j *RefreshJob) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Debug().Msg("refresh schedule stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
