package pipeline

import (
	"sync"

	"github.com/tOgg1/autostamp/internal/models"
)

// Store holds the attendance state between ticks. Callers only ever see
// copies.
type Store struct {
	mu    sync.RWMutex
	state *models.AttendanceState
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the stored state, or nil before the first tick.
func (s *Store) Snapshot() *models.AttendanceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Commit replaces the stored state with a copy of state.
func (s *Store) Commit(state *models.AttendanceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
}
