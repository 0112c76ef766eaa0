package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new AchievementRepository implementation
func NewAchievementRepository(db *sql.DB) repository.AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Catalog(ctx context.Context) ([]models.Achievement, error) {
	return achievementCatalog(ctx, r.db)
}

type rowsQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func achievementCatalog(ctx context.Context, q rowsQuerier) ([]models.Achievement, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	rows, err := q.QueryContext(ctx, `
SELECT key, name, description, icon, criteria_type, threshold, xp_reward
FROM achievements
ORDER BY criteria_type, threshold, key
`)
	if err != nil {
		log.Error("failed to load achievement catalog: %v", err)
		return nil, err
	}
	defer rows.Close()

	catalog := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.Key, &a.Name, &a.Description, &a.Icon, &a.CriteriaType, &a.Threshold, &a.XPReward); err != nil {
			return nil, err
		}
		catalog = append(catalog, a)
	}
	return catalog, rows.Err()
}

// UpsertCatalog adds new catalog entries. Existing keys keep their criteria so
// already-unlocked achievements stay meaningful; only display fields refresh.
func (r *achievementRepository) UpsertCatalog(ctx context.Context, achievements []models.Achievement) error {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")
	log.Debug("upserting %d achievements", len(achievements))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO achievements (key, name, description, icon, criteria_type, threshold, xp_reward)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    icon = excluded.icon
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range achievements {
			if _, err := stmt.ExecContext(ctx, a.Key, a.Name, a.Description, a.Icon, a.CriteriaType, a.Threshold, a.XPReward); err != nil {
				log.Error("failed to upsert achievement %s: %v", a.Key, err)
				return err
			}
		}
		return nil
	})
}

func (r *achievementRepository) ListForUser(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")
	log.Debug("listing achievements: user_id=%s", userID)

	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, achievement_key, submission_id, unlocked_at
FROM user_achievements
WHERE user_id = ?
ORDER BY unlocked_at ASC, achievement_key ASC
`, userID)
	if err != nil {
		log.Error("failed to list user achievements: %v", err)
		return nil, err
	}
	defer rows.Close()

	unlocked := []models.UserAchievement{}
	for rows.Next() {
		var ua models.UserAchievement
		if err := rows.Scan(&ua.UserID, &ua.AchievementKey, &ua.SubmissionID, &ua.UnlockedAt); err != nil {
			return nil, err
		}
		ua.UnlockedAt = ua.UnlockedAt.UTC()
		unlocked = append(unlocked, ua)
	}
	return unlocked, rows.Err()
}
