package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

type leaderboardRepository struct {
	db *sql.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository implementation
func NewLeaderboardRepository(db *sql.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func ranked() squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Eq{"is_public": true},
		squirrel.Gt{"xp": 0},
	}
}

func (r *leaderboardRepository) CountRanked(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")

	sqlStr, args, err := sqlBuilder.Select("COUNT(*)").From("profiles").Where(ranked()).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count ranked profiles: %v", err)
		return 0, err
	}
	return count, nil
}

// Top returns public profiles with XP ordered by XP, then earliest signup,
// then user id.
func (r *leaderboardRepository) Top(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("loading leaderboard: limit=%d, offset=%d", limit, offset)

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	sqlStr, args, err := sqlBuilder.
		Select("user_id", "username", "xp", "current_streak").
		From("profiles").
		Where(ranked()).
		OrderBy("xp DESC", "created_at ASC", "user_id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to load leaderboard: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.XP, &e.CurrentStreak); err != nil {
			return nil, err
		}
		e.Rank = offset + len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RankOf counts the ranked profiles ordered ahead of userID, whatever the
// user's own visibility. Callers decide who may see a private profile's rank.
func (r *leaderboardRepository) RankOf(ctx context.Context, userID string) (*models.UserRank, error) {
	log := logger.FromContext(ctx).WithPrefix("leaderboard_repo")
	log.Debug("resolving rank: user_id=%s", userID)

	rank := models.UserRank{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
SELECT me.xp, me.is_public,
       1 + (
           SELECT COUNT(*)
           FROM profiles o
           WHERE o.is_public = 1 AND o.xp > 0 AND o.user_id != me.user_id
             AND (o.xp > me.xp
                  OR (o.xp = me.xp AND o.created_at < me.created_at)
                  OR (o.xp = me.xp AND o.created_at = me.created_at AND o.user_id < me.user_id))
       )
FROM profiles me
WHERE me.user_id = ?
`, userID).Scan(&rank.XP, &rank.IsPublic, &rank.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no profile for rank: user_id=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to resolve rank: %v", err)
		return nil, err
	}
	return &rank, nil
}
