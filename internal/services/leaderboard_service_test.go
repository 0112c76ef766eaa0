package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/cache"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/testutil/mocks"
)

func TestTop_IllustrativeBelowThreshold(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLeaderboardRepository)
	svc := services.NewLeaderboardService(repo, nil, 10, fixedClock)

	repo.On("CountRanked", ctx).Return(4, nil)

	board, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	assert.True(t, board.Illustrative)
	require.Len(t, board.Entries, 5)
	for i, e := range board.Entries {
		assert.True(t, e.Illustrative)
		assert.Equal(t, i+1, e.Rank)
	}
	repo.AssertNotCalled(t, "Top", mock.Anything, mock.Anything, mock.Anything)
}

func TestTop_RealBoardAtThreshold(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLeaderboardRepository)
	svc := services.NewLeaderboardService(repo, nil, 2, fixedClock)

	entries := []models.LeaderboardEntry{
		{Rank: 1, UserID: "alice", XP: 300},
		{Rank: 2, UserID: "carol", XP: 200},
	}
	repo.On("CountRanked", ctx).Return(2, nil)
	repo.On("Top", ctx, services.DefaultLeaderboardLimit, 0).Return(entries, nil)

	board, err := svc.Top(ctx, 0)
	require.NoError(t, err)
	assert.False(t, board.Illustrative)
	assert.Equal(t, entries, board.Entries)
}

func TestTop_UsesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLeaderboardRepository)
	boardCache := new(mocks.MockLeaderboardCache)
	svc := services.NewLeaderboardService(repo, boardCache, 0, fixedClock)

	cached := &models.Leaderboard{Entries: []models.LeaderboardEntry{{Rank: 1, UserID: "alice"}}}
	boardCache.On("Get", ctx, 100).Return(nil, cache.ErrCacheMiss).Once()
	repo.On("CountRanked", ctx).Return(1, nil).Once()
	repo.On("Top", ctx, 100, 0).Return(cached.Entries, nil).Once()
	boardCache.On("Set", ctx, 100, mock.AnythingOfType("*models.Leaderboard")).Return(nil).Once()

	_, err := svc.Top(ctx, 500)
	require.NoError(t, err)

	boardCache.On("Get", ctx, 100).Return(cached, nil).Once()
	board, err := svc.Top(ctx, 100)
	require.NoError(t, err)
	assert.Same(t, cached, board)

	repo.AssertExpectations(t)
	boardCache.AssertExpectations(t)
}

func TestRankOf(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLeaderboardRepository)
	svc := services.NewLeaderboardService(repo, nil, 10, fixedClock)

	repo.On("RankOf", ctx, "alice").Return(&models.UserRank{UserID: "alice", Rank: 1, XP: 300, IsPublic: true}, nil)
	repo.On("RankOf", ctx, "ghost").Return(nil, nil)

	rank, err := svc.RankOf(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, rank.Rank)

	_, err = svc.RankOf(ctx, "bob", "ghost")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestRankOf_PrivateProfileVisibleOnlyToOwner(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockLeaderboardRepository)
	svc := services.NewLeaderboardService(repo, nil, 10, fixedClock)

	repo.On("RankOf", ctx, "dave").Return(&models.UserRank{UserID: "dave", Rank: 2, XP: 150, IsPublic: false}, nil)

	own, err := svc.RankOf(ctx, "dave", "dave")
	require.NoError(t, err)
	assert.Equal(t, 2, own.Rank)
	assert.False(t, own.IsPublic)

	_, err = svc.RankOf(ctx, "bob", "dave")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	repo.AssertExpectations(t)
}
