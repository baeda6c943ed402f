// Package store holds the in-memory candidate set for the currently
// loaded job. It is the single source of truth for the dashboard: the
// filter engine and HTTP layer only read it, and every write goes
// through the transition or bulk service.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"talentboard/internal/backend"
	"talentboard/internal/model"
	"talentboard/internal/stage"
)

// ErrNotFound is returned when an application ID is not present in
// the currently loaded set.
var ErrNotFound = errors.New("application not found")

// ErrOperationInProgress is the re-entrancy guard: an application
// with an unresolved optimistic mutation cannot start another one.
var ErrOperationInProgress = errors.New("operation already in progress for application")

// EventType classifies a store change for subscribers.
type EventType string

const (
	EventLoaded    EventType = "loaded"
	EventPatched   EventType = "patched"
	EventCommitted EventType = "committed"
	EventReverted  EventType = "reverted"
	EventRemoved   EventType = "removed"
)

// Event describes one store mutation. Subscribers (the SSE feed, the
// selection pruner) use it to recompute derived views.
type Event struct {
	Type  EventType `json:"type"`
	JobID string    `json:"jobId"`
	IDs   []string  `json:"ids,omitempty"`
}

// Store is the in-memory application set, scoped to one job at a
// time. All access is serialized by the mutex; per-application
// operation ordering is enforced by the PendingOperation guard in
// ApplyLocalPatch.
type Store struct {
	api backend.API

	mu    sync.RWMutex
	jobID string
	apps  map[string]*model.Application

	subMu   sync.Mutex
	nextSub int
	subs    map[int]chan Event
}

// New constructs an empty Store backed by the given upstream API.
func New(api backend.API) *Store {
	return &Store{
		api:  api,
		apps: make(map[string]*model.Application),
		subs: make(map[int]chan Event),
	}
}

// Load fetches the application list for jobID from upstream and
// replaces the in-memory set. On failure the previous set is left
// untouched so the dashboard can keep showing stale-but-valid data
// next to an error indicator.
func (s *Store) Load(ctx context.Context, jobID string) (int, error) {
	apps, err := s.api.FetchApplications(ctx, jobID)
	if err != nil {
		return 0, err
	}

	fresh := make(map[string]*model.Application, len(apps))
	for i := range apps {
		a := apps[i].Clone()
		a.PendingOperation = false
		fresh[a.ID] = &a
	}

	s.mu.Lock()
	s.jobID = jobID
	s.apps = fresh
	s.mu.Unlock()

	s.notify(Event{Type: EventLoaded, JobID: jobID})
	return len(fresh), nil
}

// JobID returns the job the store is currently scoped to, or "" when
// nothing has been loaded yet.
func (s *Store) JobID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobID
}

// Get returns a copy of one application.
func (s *Store) Get(id string) (model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok {
		return model.Application{}, ErrNotFound
	}
	return a.Clone(), nil
}

// Snapshot returns copies of every application in the set. Order is
// unspecified; callers that need a stable order go through the filter
// engine.
func (s *Store) Snapshot() []model.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Application, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, a.Clone())
	}
	return out
}

// IDs returns the IDs currently present, sorted for determinism.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.apps))
	for id := range s.apps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Has reports whether id is present in the loaded set.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apps[id]
	return ok
}

// StageCounts returns how many applications sit in each stage, for
// Kanban column headers.
func (s *Store) StageCounts() map[stage.Stage]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[stage.Stage]int, len(stage.All()))
	for _, st := range stage.All() {
		out[st] = 0
	}
	for _, a := range s.apps {
		out[a.Stage]++
	}
	return out
}

// ApplyLocalPatch begins an optimistic mutation: it applies the patch
// in place and returns the pre-patch snapshot the caller needs for a
// later Revert. An application with an unresolved operation rejects
// further patches with ErrOperationInProgress; the check and the
// patch are atomic under the store lock, so two concurrent requests
// for the same application cannot both pass the guard.
func (s *Store) ApplyLocalPatch(id string, p model.Patch) (model.Application, error) {
	s.mu.Lock()
	a, ok := s.apps[id]
	if !ok {
		s.mu.Unlock()
		return model.Application{}, ErrNotFound
	}
	if a.PendingOperation {
		s.mu.Unlock()
		return model.Application{}, ErrOperationInProgress
	}
	snap := a.Clone()
	p.Apply(a)
	jobID := s.jobID
	s.mu.Unlock()

	s.notify(Event{Type: EventPatched, JobID: jobID, IDs: []string{id}})
	return snap, nil
}

// Commit finalizes an optimistic mutation. The patch is expected to
// clear PendingOperation.
func (s *Store) Commit(id string, p model.Patch) error {
	s.mu.Lock()
	a, ok := s.apps[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	p.Apply(a)
	jobID := s.jobID
	s.mu.Unlock()

	s.notify(Event{Type: EventCommitted, JobID: jobID, IDs: []string{id}})
	return nil
}

// Revert undoes an optimistic mutation by restoring the pre-patch
// snapshot wholesale. The snapshot was taken before PendingOperation
// was set, so the pending flag clears as part of the restore.
func (s *Store) Revert(id string, snap model.Application) error {
	s.mu.Lock()
	if _, ok := s.apps[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	restored := snap.Clone()
	s.apps[id] = &restored
	jobID := s.jobID
	s.mu.Unlock()

	s.notify(Event{Type: EventReverted, JobID: jobID, IDs: []string{id}})
	return nil
}

// Remove drops an application after a confirmed upstream delete.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	if _, ok := s.apps[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.apps, id)
	jobID := s.jobID
	s.mu.Unlock()

	s.notify(Event{Type: EventRemoved, JobID: jobID, IDs: []string{id}})
	return nil
}

// Subscribe registers a change listener. The returned cancel func
// unregisters it and closes the channel. Slow consumers drop events
// rather than block store mutations.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
