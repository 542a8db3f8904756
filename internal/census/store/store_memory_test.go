package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"decide/internal/census/models"
	"decide/internal/census/store"
	id "decide/pkg/domain"
	"decide/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *store.InMemory
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = store.NewInMemory()
}

func (s *InMemoryStoreSuite) TestAddAll() {
	ctx := context.Background()

	s.Run("inserts distinct voters", func() {
		n, err := s.store.AddAll(ctx, 1, []id.VoterID{3, 1, 1, 2})
		s.Require().NoError(err)
		s.Equal(3, n)

		voters, err := s.store.ListVoters(ctx, 1)
		s.Require().NoError(err)
		s.Equal([]id.VoterID{1, 2, 3}, voters)
	})

	s.Run("collision inserts nothing", func() {
		_, err := s.store.AddAll(ctx, 1, []id.VoterID{4, 2})
		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrConflict))

		exists, err := s.store.Exists(ctx, 1, 4)
		s.Require().NoError(err)
		s.False(exists)
	})
}

func (s *InMemoryStoreSuite) TestRemoveAll() {
	ctx := context.Background()
	_, err := s.store.AddAll(ctx, 1, []id.VoterID{1, 2, 3})
	s.Require().NoError(err)

	n, err := s.store.RemoveAll(ctx, 1, []id.VoterID{2, 9})
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.RemoveAll(ctx, 7, []id.VoterID{1})
	s.Require().NoError(err)
	s.Zero(n)

	voters, err := s.store.ListVoters(ctx, 1)
	s.Require().NoError(err)
	s.Equal([]id.VoterID{1, 3}, voters)
}

func (s *InMemoryStoreSuite) TestList() {
	ctx := context.Background()
	_, err := s.store.AddAll(ctx, 2, []id.VoterID{5, 1})
	s.Require().NoError(err)
	_, err = s.store.AddAll(ctx, 1, []id.VoterID{5})
	s.Require().NoError(err)

	all, err := s.store.List(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Equal([]models.Entry{{VotingID: 1, VoterID: 5}, {VotingID: 2, VoterID: 1}, {VotingID: 2, VoterID: 5}}, all)

	byVoter, err := s.store.List(ctx, models.ByVoter(5))
	s.Require().NoError(err)
	s.Len(byVoter, 2)

	byVoting, err := s.store.List(ctx, models.ByVoting(3))
	s.Require().NoError(err)
	s.Empty(byVoting)
}

// TestConcurrentAdd verifies that racing inserts of the same pair produce
// exactly one winner.
func (s *InMemoryStoreSuite) TestConcurrentAdd() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.AddAll(ctx, 1, []id.VoterID{42})
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}
