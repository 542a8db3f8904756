package memory

import (
	"context"
	"sync"

	audit "decide/pkg/platform/audit"
)

// InMemoryStore keeps audit events per voting. Used in tests and when no
// broker is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.VotingID] = append(s.events[event.VotingID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByVoting(_ context.Context, votingID int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[votingID]...), nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.order...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[int64][]audit.Event)
	s.order = nil
}
