package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"decide/internal/census/models"
	id "decide/pkg/domain"
	"decide/pkg/platform/sentinel"
)

// InMemory keeps census rolls in process memory. Uniqueness checks and
// inserts happen under one lock so racing writers produce a single winner.
type InMemory struct {
	mu    sync.RWMutex
	rolls map[id.VotingID]map[id.VoterID]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{rolls: make(map[id.VotingID]map[id.VoterID]struct{})}
}

// AddAll enrolls every voter or none. Duplicate ids in the input collapse.
func (s *InMemory) AddAll(_ context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roll := s.rolls[votingID]
	for _, v := range voterIDs {
		if _, ok := roll[v]; ok {
			return 0, fmt.Errorf("voter %d already enrolled in voting %d: %w", v, votingID, sentinel.ErrConflict)
		}
	}
	if roll == nil {
		roll = make(map[id.VoterID]struct{}, len(voterIDs))
		s.rolls[votingID] = roll
	}
	added := 0
	for _, v := range voterIDs {
		if _, ok := roll[v]; ok {
			continue
		}
		roll[v] = struct{}{}
		added++
	}
	return added, nil
}

func (s *InMemory) RemoveAll(_ context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roll := s.rolls[votingID]
	removed := 0
	for _, v := range voterIDs {
		if _, ok := roll[v]; ok {
			delete(roll, v)
			removed++
		}
	}
	if len(roll) == 0 {
		delete(s.rolls, votingID)
	}
	return removed, nil
}

// ListVoters returns voter ids in ascending order.
func (s *InMemory) ListVoters(_ context.Context, votingID id.VotingID) ([]id.VoterID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voters := make([]id.VoterID, 0, len(s.rolls[votingID]))
	for v := range s.rolls[votingID] {
		voters = append(voters, v)
	}
	slices.Sort(voters)
	return voters, nil
}

func (s *InMemory) Exists(_ context.Context, votingID id.VotingID, voterID id.VoterID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rolls[votingID][voterID]
	return ok, nil
}

// List returns matching entries ordered by voting then voter.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.Entry
	for votingID, roll := range s.rolls {
		for voterID := range roll {
			e := models.Entry{VotingID: votingID, VoterID: voterID}
			if filter.Matches(e) {
				entries = append(entries, e)
			}
		}
	}
	slices.SortFunc(entries, compareEntries)
	return entries, nil
}

// RunInTx runs fn directly; each InMemory call is already atomic.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func compareEntries(a, b models.Entry) int {
	if a.VotingID != b.VotingID {
		if a.VotingID < b.VotingID {
			return -1
		}
		return 1
	}
	switch {
	case a.VoterID < b.VoterID:
		return -1
	case a.VoterID > b.VoterID:
		return 1
	default:
		return 0
	}
}
