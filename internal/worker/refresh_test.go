package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/worker"
)

type staticSource struct {
	fc  catalogue.FeatureCollection
	err error
}

func (s staticSource) Fetch(context.Context) (catalogue.FeatureCollection, error) {
	return s.fc, s.err
}

func (s staticSource) Name() string {
	return "static"
}

func feature(id int, lat, lon any) map[string]any {
	attrs := map[string]any{"OBJECTID": id, "name": "Program"}
	if lat != nil {
		attrs["latitude"] = lat
		attrs["longitude"] = lon
	}
	return map[string]any{"attributes": attrs}
}

func collection(features ...map[string]any) catalogue.FeatureCollection {
	fc := catalogue.FeatureCollection{Features: []any{}}
	for _, f := range features {
		fc.Features = append(fc.Features, f)
	}
	return fc
}

func newJob(src catalogue.Source, cfg worker.RefreshConfig) (*worker.RefreshJob, *catalogue.Store) {
	store := catalogue.NewStore()
	loader := catalogue.NewLoader(src, store, zerolog.Nop())
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: cfg,
		Logger: zerolog.Nop(),
		Loader: loader,
	}), store
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.MinPrograms)
	assert.Equal(t, 0.5, cfg.MaxDropRatio)
}

func TestRefreshJob_Run(t *testing.T) {
	job, store := newJob(staticSource{fc: collection(
		feature(1, 34.05, -118.25),
		feature(2, 34.10, -118.30),
	)}, worker.RefreshConfig{})

	result := job.Run(context.Background())

	require.NoError(t, result.Err)
	assert.True(t, result.Installed)
	assert.Equal(t, "static", result.Source)
	assert.Equal(t, 2, result.Report.Loaded)
	assert.True(t, store.Ready())
	assert.Equal(t, 2, store.Catalogue().Len())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(1), metrics.SuccessfulRefresh)
	assert.NotZero(t, metrics.LastRefreshAt)
	assert.Equal(t, 2, metrics.LastReport.Loaded)
}

func TestRefreshJob_RejectsSuspiciousLoads(t *testing.T) {
	tests := []struct {
		name string
		fc   catalogue.FeatureCollection
		cfg  worker.RefreshConfig
	}{
		{
			name: "too few programs",
			fc:   collection(feature(1, 34.05, -118.25)),
			cfg:  worker.RefreshConfig{MinPrograms: 2},
		},
		{
			name: "too many dropped",
			fc:   collection(feature(1, 34.05, -118.25), feature(2, nil, nil), feature(3, nil, nil)),
			cfg:  worker.RefreshConfig{MaxDropRatio: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, store := newJob(staticSource{fc: tt.fc}, tt.cfg)

			result := job.Run(context.Background())

			assert.True(t, errors.Is(result.Err, worker.ErrRejectedLoad))
			assert.False(t, result.Installed)
			assert.False(t, store.Ready())
			assert.Equal(t, int64(1), job.GetMetrics().RejectedRefreshes)
		})
	}
}

func TestRefreshJob_KeepsPreviousOnFailure(t *testing.T) {
	store := catalogue.NewStore()
	good := catalogue.NewLoader(staticSource{fc: collection(feature(1, 34.05, -118.25))}, store, zerolog.Nop())
	_, err := good.Reload(context.Background())
	require.NoError(t, err)

	bad := catalogue.NewLoader(staticSource{err: errors.New("upstream down")}, store, zerolog.Nop())
	job := worker.NewRefreshJob(worker.RefreshJobConfig{Logger: zerolog.Nop(), Loader: bad})

	result := job.Run(context.Background())
	assert.Error(t, result.Err)
	assert.Equal(t, 1, store.Catalogue().Len())
	assert.Equal(t, int64(1), job.GetMetrics().FailedRefreshes)
}

func TestRefreshJob_CheckDoesNotInstall(t *testing.T) {
	job, store := newJob(staticSource{fc: collection(feature(1, 34.05, -118.25))}, worker.RefreshConfig{})

	require.NoError(t, job.Check(context.Background()))
	assert.False(t, store.Ready())

	result := job.DryRun(context.Background())
	require.NoError(t, result.Err)
	assert.False(t, result.Installed)
	assert.Equal(t, 1, result.Report.Loaded)
	assert.False(t, store.Ready())
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	job, _ := newJob(staticSource{fc: collection(feature(1, 34.05, -118.25))}, worker.RefreshConfig{})
	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_refreshes")
	assert.Contains(t, snapshot, "successful_refreshes")
	assert.Contains(t, snapshot, "failed_refreshes")
	assert.Contains(t, snapshot, "last_refresh_at")
	assert.Equal(t, 1, snapshot["programs_loaded"])
}

func TestRefreshJob_ScheduleStopsOnCancel(t *testing.T) {
	job, store := newJob(staticSource{fc: collection(feature(1, 34.05, -118.25))}, worker.RefreshConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Schedule(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, store.Ready, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("schedule did not stop")
	}
}

func TestDispatcher(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		src       catalogue.Source
		ack       bool
		installed bool
	}{
		{
			name:      "refresh",
			data:      `{"job_type":"catalogue_refresh"}`,
			src:       staticSource{fc: collection(feature(1, 34.05, -118.25))},
			ack:       true,
			installed: true,
		},
		{
			name: "check only",
			data: `{"job_type":"catalogue_refresh","check_only":true}`,
			src:  staticSource{fc: collection(feature(1, 34.05, -118.25))},
			ack:  true,
		},
		{
			name: "health check",
			data: `{"job_type":"health_check"}`,
			src:  staticSource{fc: collection(feature(1, 34.05, -118.25))},
			ack:  true,
		},
		{
			name: "failed refresh is retried",
			data: `{"job_type":"catalogue_refresh"}`,
			src:  staticSource{err: errors.New("boom")},
			ack:  false,
		},
		{
			name: "malformed dropped",
			data: `{not json`,
			src:  staticSource{},
			ack:  true,
		},
		{
			name: "unknown job dropped",
			data: `{"job_type":"provider_refresh"}`,
			src:  staticSource{},
			ack:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, store := newJob(tt.src, worker.RefreshConfig{})
			d := worker.NewDispatcher(job, zerolog.Nop())

			assert.Equal(t, tt.ack, d.Dispatch(context.Background(), []byte(tt.data)))
			assert.Equal(t, tt.installed, store.Ready())
		})
	}
}
