package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

var challengeColumns = []string{
	"id", "slug", "title", "difficulty", "category", "points", "xp_multiplier",
	"is_daily", "is_active", "published_at", "criteria", "created_at",
}

type challengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository creates a new ChallengeRepository implementation
func NewChallengeRepository(db *sql.DB) repository.ChallengeRepository {
	return &challengeRepository{db: db}
}

func scanChallenge(row scanner) (*models.Challenge, error) {
	var (
		c        models.Challenge
		criteria string
	)
	if err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Difficulty, &c.Category, &c.Points, &c.XPMultiplier,
		&c.IsDaily, &c.IsActive, &c.PublishedAt, &criteria, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteria), &c.Criteria); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.PublishedAt = utcPtr(c.PublishedAt)
	return &c, nil
}

func (r *challengeRepository) getBy(ctx context.Context, column string, value any) (*models.Challenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")

	sqlStr, args, err := sqlBuilder.Select(challengeColumns...).From("challenges").
		Where(squirrel.Eq{column: value}).ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanChallenge(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("challenge not found: %s=%v", column, value)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get challenge: %v", err)
		return nil, err
	}
	return c, nil
}

func (r *challengeRepository) Get(ctx context.Context, id int64) (*models.Challenge, error) {
	return r.getBy(ctx, "id", id)
}

func (r *challengeRepository) GetBySlug(ctx context.Context, slug string) (*models.Challenge, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *challengeRepository) List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("listing challenges: category=%s, difficulty=%s, active_only=%t", filter.Category, filter.Difficulty, filter.ActiveOnly)

	query := sqlBuilder.Select(challengeColumns...).From("challenges")
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Difficulty != "" {
		query = query.Where(squirrel.Eq{"difficulty": filter.Difficulty})
	}
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"is_active": true}).
			Where(squirrel.NotEq{"published_at": nil}).
			Where(squirrel.LtOrEq{"published_at": filter.Now.UTC()})
	}
	query = query.OrderBy("is_daily DESC", "published_at DESC", "id ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list challenges: %v", err)
		return nil, err
	}
	defer rows.Close()

	challenges := []models.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			log.Error("failed to scan challenge row: %v", err)
			return nil, err
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// Upsert inserts a challenge by slug. Once a challenge is published only its
// activation flag may change; content updates to a published row are ignored.
func (r *challengeRepository) Upsert(ctx context.Context, c models.Challenge) (*models.Challenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("upserting challenge: slug=%s", c.Slug)

	criteria, err := json.Marshal(c.Criteria)
	if err != nil {
		return nil, err
	}
	if c.XPMultiplier <= 0 {
		c.XPMultiplier = 1
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
INSERT INTO challenges (slug, title, difficulty, category, points, xp_multiplier, is_daily, is_active, published_at, criteria, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
    title         = CASE WHEN challenges.published_at IS NULL THEN excluded.title ELSE challenges.title END,
    difficulty    = CASE WHEN challenges.published_at IS NULL THEN excluded.difficulty ELSE challenges.difficulty END,
    category      = CASE WHEN challenges.published_at IS NULL THEN excluded.category ELSE challenges.category END,
    points        = CASE WHEN challenges.published_at IS NULL THEN excluded.points ELSE challenges.points END,
    xp_multiplier = CASE WHEN challenges.published_at IS NULL THEN excluded.xp_multiplier ELSE challenges.xp_multiplier END,
    criteria      = CASE WHEN challenges.published_at IS NULL THEN excluded.criteria ELSE challenges.criteria END,
    published_at  = COALESCE(challenges.published_at, excluded.published_at),
    is_daily      = excluded.is_daily,
    is_active     = excluded.is_active
RETURNING id
`, c.Slug, c.Title, c.Difficulty, c.Category, c.Points, c.XPMultiplier, c.IsDaily, c.IsActive,
		utcPtr(c.PublishedAt), string(criteria), c.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		log.Error("failed to upsert challenge: %v", err)
		return nil, err
	}

	log.Debug("challenge upserted: id=%d", id)
	return r.Get(ctx, id)
}

func (r *challengeRepository) SetActive(ctx context.Context, id int64, active bool) error {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Info("setting challenge activation: id=%d, active=%t", id, active)

	res, err := r.db.ExecContext(ctx, `UPDATE challenges SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		log.Error("failed to set challenge activation: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
