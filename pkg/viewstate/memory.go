package viewstate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory view-state store for tests and ephemeral
// sessions. State does not survive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Load(ctx context.Context, viewID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[viewID]
	if !ok {
		return nil, nil
	}
	cp := st
	return &cp, nil
}

func (s *MemoryStore) Save(ctx context.Context, viewID string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now()
	s.states[viewID] = *state
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, viewID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
