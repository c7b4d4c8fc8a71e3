package handler

import (
	"net/http"
	"time"

	"github.com/calmroute/calmroute/internal/api/models"
	"github.com/calmroute/calmroute/internal/api/response"
	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     *catalogue.Store
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, store *catalogue.Store, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once a
// catalogue has been installed.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
			Status:  models.HealthStatusFail,
			Time:    models.Timestamp(time.Now()),
			Details: map[string]interface{}{"catalogue": "not loaded"},
		})
		return
	}

	snap := h.store.Current()
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]interface{}{"programs": snap.Report.Loaded},
	})
}

// SystemStatus handles GET /v1/ops/status - catalogue and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Catalogue: catalogueStatus(h.store.Current()),
		Providers: []models.ProviderStatus{},
	}
	if status.Catalogue.Status != models.HealthStatusOK {
		status.Status = models.HealthStatusFail
	}

	if h.registry != nil {
		for _, ph := range h.registry.All() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func catalogueStatus(snap *catalogue.Snapshot) models.CatalogueStatus {
	if snap == nil {
		return models.CatalogueStatus{Status: models.HealthStatusFail}
	}
	loadedAt := models.Timestamp(snap.LoadedAt)
	return models.CatalogueStatus{
		Status:     models.HealthStatusOK,
		Source:     snap.Source,
		LoadedAt:   &loadedAt,
		Programs:   snap.Report.Loaded,
		Dropped:    snap.Report.Dropped,
		Duplicates: snap.Report.Duplicates,
	}
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      ph.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  ph.CircuitState.String(),
		LastSuccessAt: timestampPtr(ph.LastSuccessAt),
		LastFailureAt: timestampPtr(ph.LastFailureAt),
	}
	switch {
	case ph.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case ph.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
