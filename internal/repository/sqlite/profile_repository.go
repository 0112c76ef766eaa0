package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

const profileSelect = `
SELECT user_id, username, is_public, xp, current_streak, longest_streak, last_activity_date, created_at
FROM profiles`

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository implementation
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p    models.Profile
		last sql.NullString
	)
	if err := row.Scan(&p.UserID, &p.Username, &p.IsPublic, &p.XP, &p.CurrentStreak, &p.LongestStreak, &last, &p.CreatedAt); err != nil {
		return nil, err
	}
	date, err := parseDate(last)
	if err != nil {
		return nil, err
	}
	p.LastActivityDate = date
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: user_id=%s", userID)

	p, err := scanProfile(r.db.QueryRowContext(ctx, profileSelect+` WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("profile not found: user_id=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, err
	}
	return p, nil
}

// Ensure creates the profile on first sight and refreshes the username
// afterwards. Progress fields are never touched here.
func (r *profileRepository) Ensure(ctx context.Context, userID, username string, now time.Time) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("ensuring profile: user_id=%s", userID)

	if username == "" {
		username = userID
	}

	p, err := scanProfile(r.db.QueryRowContext(ctx, `
INSERT INTO profiles (user_id, username, created_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET username = excluded.username
RETURNING user_id, username, is_public, xp, current_streak, longest_streak, last_activity_date, created_at
`, userID, username, now.UTC()))
	if err != nil {
		log.Error("failed to ensure profile: %v", err)
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) SetVisibility(ctx context.Context, userID string, public bool) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("setting profile visibility: user_id=%s, public=%t", userID, public)

	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET is_public = ? WHERE user_id = ?`, public, userID)
	if err != nil {
		log.Error("failed to set visibility: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
