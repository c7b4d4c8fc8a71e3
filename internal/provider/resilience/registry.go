package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one feed.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports a closed circuit.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports a half-open circuit.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports an open circuit.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks feed clients and the outcome of their last fetches.
// Outcomes are recorded at the fetch level, which may span several requests.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*feed
}

type feed struct {
	client    *Client
	lastOK    *time.Time
	lastError *time.Time
	message   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*feed)}
}

// Register adds a client under its name, replacing any previous one.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[client.Name()] = &feed{client: client}
}

// RecordSuccess marks a completed fetch. Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := time.Now()
		f.lastOK = &now
	}
}

// RecordFailure marks a failed fetch. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := time.Now()
		f.lastError = &now
		if err != nil {
			f.message = err.Error()
		}
	}
}

// Health returns the named feed's health.
func (r *Registry) Health(name string) (*ProviderHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.feeds[name]
	if !ok {
		return nil, false
	}
	return f.health(name), true
}

// All returns every feed's health ordered by name.
func (r *Registry) All() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ProviderHealth, 0, len(r.feeds))
	for name, f := range r.feeds {
		out = append(out, f.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered feeds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.feeds)
}

func (f *feed) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  f.client.State(),
		Counts:        f.client.Counts(),
		LastSuccessAt: f.lastOK,
		LastFailureAt: f.lastError,
		LastError:     f.message,
	}
}
