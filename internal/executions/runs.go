package executions

import (
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/cascade/internal/engine"
)

// runStore holds the live runs keyed by execution id. Entries exist from
// submission until the terminal record is persisted; after removal the
// Postgres row is the source of truth.
type runStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*engine.Run
}

func newRunStore() *runStore {
	return &runStore{runs: map[uuid.UUID]*engine.Run{}}
}

func (s *runStore) put(id uuid.UUID, run *engine.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = run
}

func (s *runStore) get(id uuid.UUID) (*engine.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

func (s *runStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
}
