// Package identity looks up registered platform users. The census service
// only reads users; they are created by the platform's auth service.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"decide/pkg/platform/sentinel"
)

// InMemory is a user directory for tests and database-less runs.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[int64]string
	byUsername map[string]int64
	byFolded   map[string][]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[int64]string),
		byUsername: make(map[string]int64),
		byFolded:   make(map[string][]int64),
	}
}

// Add registers a user. Usernames are unique as written.
func (s *InMemory) Add(id int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = username
	s.byUsername[username] = id
	folded := strings.ToLower(username)
	s.byFolded[folded] = append(s.byFolded[folded], id)
}

func (s *InMemory) Exists(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[userID]
	return ok, nil
}

// FindByUsername prefers an exact match and falls back to a unique
// case-insensitive one. Several case-insensitive matches wrap
// sentinel.ErrAmbiguous.
func (s *InMemory) FindByUsername(_ context.Context, username string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username = strings.TrimSpace(username)
	if id, ok := s.byUsername[username]; ok {
		return id, true, nil
	}
	switch ids := s.byFolded[strings.ToLower(username)]; len(ids) {
	case 0:
		return 0, false, nil
	case 1:
		return ids[0], true, nil
	default:
		return 0, false, fmt.Errorf("username %q matches several users: %w", username, sentinel.ErrAmbiguous)
	}
}
