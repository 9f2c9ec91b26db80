package realm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable, name-ordered view of the realm directory.
// Readers hold a snapshot for the duration of one realm-list response and
// never block a refresh.
type Snapshot struct {
	Realms []Realm
}

// Loader fetches the current realm rows from persistent storage.
type Loader func(ctx context.Context) ([]Realm, error)

// Store serves realm snapshots and refreshes them on an interval.
// A refresh performs the data fetch first and swaps the snapshot pointer
// atomically, so readers see either the old or the new directory, never a
// partial one.
type Store struct {
	loader   Loader
	interval time.Duration

	current atomic.Pointer[Snapshot]

	mu          sync.Mutex // serializes refreshes
	nextRefresh time.Time
}

// NewStore creates a store around a loader. interval <= 0 disables periodic
// refreshes after the initial load.
func NewStore(loader Loader, interval time.Duration) *Store {
	s := &Store{loader: loader, interval: interval}
	s.current.Store(&Snapshot{})
	return s
}

// Current returns the latest snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Len returns the number of realms in the current snapshot.
func (s *Store) Len() int {
	return len(s.Current().Realms)
}

// Refresh reloads the directory unconditionally.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// RefreshIfStale reloads the directory when the refresh interval has elapsed
// since the last load.
func (s *Store) RefreshIfStale(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Now().Before(s.nextRefresh) {
		return nil
	}
	return s.refreshLocked(ctx)
}

func (s *Store) refreshLocked(ctx context.Context) error {
	realms, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("loading realm list: %w", err)
	}

	snap := &Snapshot{Realms: make([]Realm, 0, len(realms))}
	for _, r := range realms {
		if r.ID == 0 {
			slog.Error("realm id must be > 0, skipping", "name", r.Name)
			continue
		}
		if r.Flags&^ValidFlags != 0 {
			slog.Error("realm has invalid flags, masking", "id", r.ID, "name", r.Name, "flags", r.Flags)
			r.Flags &= ValidFlags
		}
		if r.SecurityLevel > SecAdministrator {
			r.SecurityLevel = SecAdministrator
		}
		snap.Realms = append(snap.Realms, r)
	}
	sort.Slice(snap.Realms, func(i, j int) bool {
		return snap.Realms[i].Name < snap.Realms[j].Name
	})

	s.current.Store(snap)
	s.nextRefresh = time.Now().Add(s.interval)
	slog.Debug("realm list refreshed", "realms", len(snap.Realms))
	return nil
}
