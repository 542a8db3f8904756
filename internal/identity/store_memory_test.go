package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"decide/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.store.Add(1, "alice")
	s.store.Add(2, "Bob")
	s.store.Add(3, "dana")
	s.store.Add(4, "Dana")
	s.store.Add(5, "eve")
	s.store.Add(6, "EVE")
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) TestExists() {
	ok, err := s.store.Exists(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Exists(s.ctx, 99)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemorySuite) TestFindByUsername() {
	s.Run("matches case-insensitively", func() {
		id, ok, err := s.store.FindByUsername(s.ctx, "BOB")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(int64(2), id)
	})

	s.Run("exact match wins over case variants", func() {
		id, ok, err := s.store.FindByUsername(s.ctx, "Dana")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(int64(4), id)

		id, ok, err = s.store.FindByUsername(s.ctx, " dana ")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(int64(3), id)
	})

	s.Run("several case-insensitive matches are ambiguous", func() {
		_, ok, err := s.store.FindByUsername(s.ctx, "Eve")
		s.ErrorIs(err, sentinel.ErrAmbiguous)
		s.False(ok)
	})

	s.Run("reports absence without error", func() {
		_, ok, err := s.store.FindByUsername(s.ctx, "carol")
		s.Require().NoError(err)
		s.False(ok)
	})
}
