//go:build integration

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
	"decide/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pgx      bool
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func TestPostgresStoreSuitePGX(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &PostgresStoreSuite{pgx: true})
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	if s.pgx {
		s.postgres = mgr.GetPostgresPGX(s.T())
	} else {
		s.postgres = mgr.GetPostgres(s.T())
	}
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "census")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestAddAllIsAllOrNothing() {
	ctx := context.Background()

	n, err := s.store.AddAll(ctx, 1, []id.VoterID{1, 2, 2})
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.AddAll(ctx, 1, []id.VoterID{3, 2})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))

	voters, err := s.store.ListVoters(ctx, 1)
	s.Require().NoError(err)
	s.Equal([]id.VoterID{1, 2}, voters)
}

func (s *PostgresStoreSuite) TestRemoveExistsAndList() {
	ctx := context.Background()
	_, err := s.store.AddAll(ctx, 1, []id.VoterID{1, 2})
	s.Require().NoError(err)
	_, err = s.store.AddAll(ctx, 2, []id.VoterID{2})
	s.Require().NoError(err)

	n, err := s.store.RemoveAll(ctx, 1, []id.VoterID{1, 5})
	s.Require().NoError(err)
	s.Equal(1, n)

	exists, err := s.store.Exists(ctx, 1, 1)
	s.Require().NoError(err)
	s.False(exists)

	entries, err := s.store.List(ctx, models.ByVoter(2))
	s.Require().NoError(err)
	s.Equal([]models.Entry{{VotingID: 1, VoterID: 2}, {VotingID: 2, VoterID: 2}}, entries)

	entries, err = s.store.List(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.AddAll(ctx, 9, []id.VoterID{1}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	voters, err := s.store.ListVoters(ctx, 9)
	s.Require().NoError(err)
	s.Empty(voters)
}

// TestConcurrentAdd verifies that the unique constraint produces exactly one
// winner under racing inserts of the same pair.
func (s *PostgresStoreSuite) TestConcurrentAdd() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.AddAll(ctx, 3, []id.VoterID{42})
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
