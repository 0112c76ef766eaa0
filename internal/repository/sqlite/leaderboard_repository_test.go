package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/repository/sqlite"
	"github.com/vytor/skillforge/internal/testutil"
)

type LeaderboardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.LeaderboardRepository
	day  time.Time
}

func (s *LeaderboardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewLeaderboardRepository(s.db)
	s.day = testutil.Date(2026, time.September, 1)

	testutil.SeedProfile(s.T(), s.db, "alice", 500, true, s.day)
	testutil.SeedProfile(s.T(), s.db, "bob", 300, true, s.day.Add(time.Hour))
	testutil.SeedProfile(s.T(), s.db, "carol", 300, true, s.day)
	testutil.SeedProfile(s.T(), s.db, "dave", 900, false, s.day)
	testutil.SeedProfile(s.T(), s.db, "erin", 0, true, s.day)
	testutil.SeedProfile(s.T(), s.db, "frank", 300, true, s.day)
}

func (s *LeaderboardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *LeaderboardRepositorySuite) TestCountRanked_ExcludesPrivateAndZeroXP() {
	count, err := s.repo.CountRanked(context.Background())
	s.Require().NoError(err)
	s.Assert().Equal(4, count)
}

func (s *LeaderboardRepositorySuite) TestTop_OrdersWithTieBreaks() {
	entries, err := s.repo.Top(context.Background(), 10, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)

	var ids []string
	for i, e := range entries {
		ids = append(ids, e.UserID)
		s.Assert().Equal(i+1, e.Rank)
		s.Assert().False(e.Illustrative)
	}
	// carol and frank tie on XP and signup; user id decides. bob signed up later.
	s.Assert().Equal([]string{"alice", "carol", "frank", "bob"}, ids)
}

func (s *LeaderboardRepositorySuite) TestTop_Pagination() {
	entries, err := s.repo.Top(context.Background(), 2, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Assert().Equal("frank", entries[0].UserID)
	s.Assert().Equal(3, entries[0].Rank)
}

func (s *LeaderboardRepositorySuite) TestRankOf_MatchesTopOrdering() {
	ctx := context.Background()
	entries, err := s.repo.Top(ctx, 10, 0)
	s.Require().NoError(err)

	for _, e := range entries {
		rank, err := s.repo.RankOf(ctx, e.UserID)
		s.Require().NoError(err)
		s.Require().NotNil(rank)
		s.Assert().Equal(e.Rank, rank.Rank, e.UserID)
		s.Assert().Equal(e.XP, rank.XP)
	}
}

func (s *LeaderboardRepositorySuite) TestRankOf_PrivateAndZeroXPUsers() {
	ctx := context.Background()

	private, err := s.repo.RankOf(ctx, "dave")
	s.Require().NoError(err)
	s.Assert().Equal(1, private.Rank)
	s.Assert().False(private.IsPublic)

	zero, err := s.repo.RankOf(ctx, "erin")
	s.Require().NoError(err)
	s.Assert().Equal(5, zero.Rank)
	s.Assert().True(zero.IsPublic)

	missing, err := s.repo.RankOf(ctx, "nobody")
	s.Require().NoError(err)
	s.Assert().Nil(missing)
}

func TestLeaderboardRepositorySuite(t *testing.T) {
	suite.Run(t, new(LeaderboardRepositorySuite))
}
