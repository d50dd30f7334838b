// internal/fetch/store.go
// @tag fetch, snapshot_store
package fetch

import (
	"sort"
	"sync"
	"time"

	"optionflow/models"
)

// Store holds the live fetch result. It follows a single-writer,
// copy-on-fetch discipline: the orchestrator replaces the whole
// asset→snapshot map atomically after a fetch run settles, and readers
// get immutable views that are never mutated in place. There is no
// incremental merge; a snapshot for an asset either exists in full or
// not at all.
type Store struct {
	mu        sync.RWMutex
	session   string
	fetchedAt time.Time
	snapshots map[string]*models.AssetSnapshot
	errors    []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]*models.AssetSnapshot)}
}

// Replace swaps in the result of a completed fetch run, discarding the
// previous mapping wholesale.
func (s *Store) Replace(session string, snapshots map[string]*models.AssetSnapshot, errs []string) {
	if snapshots == nil {
		snapshots = make(map[string]*models.AssetSnapshot)
	}
	s.mu.Lock()
	s.session = session
	s.fetchedAt = time.Now()
	s.snapshots = snapshots
	s.errors = append([]string(nil), errs...)
	s.mu.Unlock()
}

// Assets lists the assets present in the live snapshot, sorted.
func (s *Store) Assets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]string, 0, len(s.snapshots))
	for asset := range s.snapshots {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// Snapshot returns the live snapshot for an asset. The snapshot is
// shared and must be treated as read-only.
func (s *Store) Snapshot(asset string) (*models.AssetSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[asset]
	return snap, ok
}

// Errors returns the per-asset error strings of the last fetch run.
func (s *Store) Errors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.errors...)
}

// Session returns the id of the fetch run that produced the live
// snapshot and when it was committed. The id is empty before the first
// run.
func (s *Store) Session() (string, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session, s.fetchedAt
}
