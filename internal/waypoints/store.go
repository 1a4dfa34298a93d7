package waypoints

import (
	"slices"
	"sync"

	"github.com/UnknownOlympus/wayly/internal/models"
)

// Store is the ordered list of route steps. Entries are unique by coordinate pair and
// keep insertion order. It is safe for concurrent use; Snapshot is the only way a route
// request reads it.
type Store struct {
	mu    sync.RWMutex
	steps []models.Waypoint
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add appends the waypoint unless an entry with the same coordinate pair exists.
// It returns the resulting steps.
func (s *Store) Add(wp models.Waypoint) []models.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists := slices.ContainsFunc(s.steps, func(step models.Waypoint) bool {
		return step.SamePosition(wp)
	})
	if !exists {
		s.steps = append(s.steps, wp)
	}

	return s.copySteps()
}

// Remove deletes every entry sharing the waypoint's coordinate pair.
func (s *Store) Remove(wp models.Waypoint) []models.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.steps = slices.DeleteFunc(s.steps, func(step models.Waypoint) bool {
		return step.SamePosition(wp)
	})

	return s.copySteps()
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	s.steps = nil
	s.mu.Unlock()
}

// Snapshot returns a copy of the current steps.
func (s *Store) Snapshot() []models.Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copySteps()
}

// Len returns the number of steps.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.steps)
}

func (s *Store) copySteps() []models.Waypoint {
	return append(make([]models.Waypoint, 0, len(s.steps)), s.steps...)
}
