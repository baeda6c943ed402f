// Package selection tracks which application IDs are marked for a
// bulk action. The set is scoped to the loaded job and never allowed
// to reference an ID the store no longer holds.
package selection

import (
	"sort"
	"sync"
)

// Set is the current selection. Safe for concurrent use.
type Set struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// New returns an empty selection.
func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Toggle flips membership of id and reports whether it is selected
// afterwards.
func (s *Set) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll adds every visible ID. Selecting the same IDs twice is a
// no-op.
func (s *Set) SelectAll(visibleIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range visibleIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection. Called when the active job changes and
// when a bulk operation completes.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

// Has reports whether id is selected.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected IDs sorted for determinism.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the selection size.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Prune drops any selected ID not present in existing, keeping the
// selection consistent with the store after loads and bulk deletes.
func (s *Set) Prune(existing []string) {
	keep := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}
