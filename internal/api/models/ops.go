package models

// Health is the liveness or readiness of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus reports the catalogue and upstream providers.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Catalogue CatalogueStatus  `json:"catalogue"`
	Providers []ProviderStatus `json:"providers"`
}

// CatalogueStatus describes the installed catalogue snapshot.
type CatalogueStatus struct {
	Status     HealthStatus `json:"status"`
	Source     string       `json:"source,omitempty"`
	LoadedAt   *Timestamp   `json:"loadedAt,omitempty"`
	Programs   int          `json:"programs"`
	Dropped    int          `json:"dropped"`
	Duplicates int          `json:"duplicates"`
}

// ProviderStatus is the circuit and call history of an upstream provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}
