package catalogue

import (
	"sync/atomic"
	"time"
)

// Snapshot is a catalogue together with the report of the load that produced it.
type Snapshot struct {
	Catalogue *Catalogue
	Report    LoadReport
	Source    string
	LoadedAt  time.Time
}

// Store holds the current catalogue snapshot. Refreshes replace the snapshot
// whole; readers never observe a partially loaded catalogue.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Swap installs a new snapshot and returns the previous one (nil if none).
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// Current returns the installed snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Catalogue returns the current catalogue, or nil before the first load.
func (s *Store) Catalogue() *Catalogue {
	if snap := s.current.Load(); snap != nil {
		return snap.Catalogue
	}
	return nil
}

// Ready reports whether a catalogue has been loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}
