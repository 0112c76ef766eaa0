package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/skillforge/internal/cache"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// illustrativeBoard is shown while too few real learners are ranked.
var illustrativeBoard = []models.LeaderboardEntry{
	{UserID: "demo-1", Username: "automation_ace", XP: 4820, CurrentStreak: 21},
	{UserID: "demo-2", Username: "flow_builder", XP: 4310, CurrentStreak: 14},
	{UserID: "demo-3", Username: "webhook_wizard", XP: 3975, CurrentStreak: 9},
	{UserID: "demo-4", Username: "node_ninja", XP: 3520, CurrentStreak: 12},
	{UserID: "demo-5", Username: "trigger_happy", XP: 3105, CurrentStreak: 5},
	{UserID: "demo-6", Username: "json_juggler", XP: 2760, CurrentStreak: 7},
	{UserID: "demo-7", Username: "cron_keeper", XP: 2290, CurrentStreak: 3},
	{UserID: "demo-8", Username: "api_artisan", XP: 1845, CurrentStreak: 4},
	{UserID: "demo-9", Username: "loop_learner", XP: 1320, CurrentStreak: 2},
	{UserID: "demo-10", Username: "first_flow", XP: 640, CurrentStreak: 1},
}

// LeaderboardService resolves public rankings
type LeaderboardService interface {
	Top(ctx context.Context, limit int) (*models.Leaderboard, error)
	RankOf(ctx context.Context, viewerID, userID string) (*models.UserRank, error)
}

type leaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	cache           cache.LeaderboardCache
	demoThreshold   int
	now             Clock
}

// NewLeaderboardService creates a new LeaderboardService. boardCache may be nil.
func NewLeaderboardService(leaderboardRepo repository.LeaderboardRepository, boardCache cache.LeaderboardCache, demoThreshold int, now Clock) LeaderboardService {
	return &leaderboardService{
		leaderboardRepo: leaderboardRepo,
		cache:           boardCache,
		demoThreshold:   demoThreshold,
		now:             clockOr(now),
	}
}

// Top returns the real board, or the illustrative one when fewer than the
// demo threshold of learners are ranked. The two are never mixed.
func (s *leaderboardService) Top(ctx context.Context, limit int) (*models.Leaderboard, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard")

	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	if s.cache != nil {
		board, err := s.cache.Get(ctx, limit)
		if err == nil {
			log.Debug("leaderboard cache hit: limit=%d", limit)
			return board, nil
		}
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			log.Warn("leaderboard cache read failed: %v", err)
		}
	}

	count, err := s.leaderboardRepo.CountRanked(ctx)
	if err != nil {
		log.Error("failed to count ranked profiles: %v", err)
		return nil, errors.NewInternalError(err)
	}

	var board *models.Leaderboard
	if count < s.demoThreshold {
		log.Debug("using illustrative leaderboard: ranked=%d, threshold=%d", count, s.demoThreshold)
		board = s.illustrative(limit)
	} else {
		entries, err := s.leaderboardRepo.Top(ctx, limit, 0)
		if err != nil {
			log.Error("failed to load leaderboard: %v", err)
			return nil, errors.NewInternalError(err)
		}
		board = &models.Leaderboard{Entries: entries, GeneratedAt: s.now()}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, board); err != nil {
			log.Warn("leaderboard cache write failed: %v", err)
		}
	}
	return board, nil
}

func (s *leaderboardService) illustrative(limit int) *models.Leaderboard {
	n := min(limit, len(illustrativeBoard))
	entries := make([]models.LeaderboardEntry, n)
	for i := 0; i < n; i++ {
		e := illustrativeBoard[i]
		e.Rank = i + 1
		e.Illustrative = true
		entries[i] = e
	}
	return &models.Leaderboard{Entries: entries, Illustrative: true, GeneratedAt: s.now()}
}

// RankOf resolves userID's rank as seen by viewerID. A private profile is only
// visible to its owner; anyone else gets NOT_FOUND, same as a missing one.
func (s *leaderboardService) RankOf(ctx context.Context, viewerID, userID string) (*models.UserRank, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard")
	log.Debug("resolving rank: viewer_id=%s, user_id=%s", viewerID, userID)

	rank, err := s.leaderboardRepo.RankOf(ctx, userID)
	if err != nil {
		log.Error("failed to resolve rank: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if rank == nil {
		return nil, errors.NewNotFoundError("profile", userID)
	}
	if !rank.IsPublic && viewerID != userID {
		log.Debug("hiding private rank: user_id=%s", userID)
		return nil, errors.NewNotFoundError("profile", userID)
	}
	return rank, nil
}
