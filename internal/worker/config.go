// Package worker runs background catalogue refresh jobs for CalmRoute.
package worker

import (
	"time"
)

// Job types accepted on the refresh subscription.
const (
	JobCatalogueRefresh = "catalogue_refresh"
	JobHealthCheck      = "health_check"
)

// RefreshConfig holds configuration for the catalogue refresh job.
type RefreshConfig struct {
	// Timeout bounds a single fetch-and-normalise.
	// Default: 60 seconds
	Timeout time.Duration

	// MinPrograms rejects loads yielding fewer programs, so a truncated
	// upstream response never replaces a good catalogue.
	// Default: 1
	MinPrograms int

	// MaxDropRatio rejects loads where more than this fraction of records
	// lacked coordinates. Zero disables the check.
	MaxDropRatio float64
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Timeout:      60 * time.Second,
		MinPrograms:  1,
		MaxDropRatio: 0.5,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MinPrograms <= 0 {
		c.MinPrograms = d.MinPrograms
	}
	return c
}
