// Package voting answers whether a voting exists. Votings are owned by the
// platform's voting service; the census only checks references to them.
package voting

import (
	"context"
	"sync"
)

type InMemory struct {
	mu      sync.RWMutex
	votings map[int64]struct{}
}

func NewInMemory(ids ...int64) *InMemory {
	s := &InMemory{votings: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.votings[id] = struct{}{}
	}
	return s
}

func (s *InMemory) Add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votings[id] = struct{}{}
}

func (s *InMemory) Exists(_ context.Context, votingID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votings[votingID]
	return ok, nil
}
