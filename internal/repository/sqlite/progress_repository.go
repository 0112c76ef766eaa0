package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/progress"
	"github.com/vytor/skillforge/internal/repository"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

// Apply credits a completed submission to its author exactly once. The
// outbox row is claimed first; when the claim matches nothing the event was
// already applied and Apply reports that without touching the profile.
func (r *progressRepository) Apply(ctx context.Context, submissionID string, now time.Time) (*models.ProgressOutcome, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("applying progress: submission_id=%s", submissionID)

	outcome := &models.ProgressOutcome{SubmissionID: submissionID, Unlocked: []models.Achievement{}}
	now = now.UTC()

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE progress_events SET applied_at = ?
WHERE submission_id = ? AND applied_at IS NULL
`, now, submissionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM progress_events WHERE submission_id = ?`, submissionID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			if err != nil {
				return err
			}
			outcome.AlreadyApplied = true
			return nil
		}

		var (
			userID      string
			challengeID int64
			score       sql.NullInt64
			evaluatedAt *time.Time
			multiplier  float64
		)
		if err := tx.QueryRowContext(ctx, `
SELECT s.user_id, s.challenge_id, s.score, s.evaluated_at, c.xp_multiplier
FROM submissions s
JOIN challenges c ON c.id = s.challenge_id
WHERE s.id = ? AND s.status = ?
`, submissionID, models.StatusCompleted).Scan(&userID, &challengeID, &score, &evaluatedAt, &multiplier); err != nil {
			return fmt.Errorf("load completed submission %s: %w", submissionID, err)
		}

		profile, err := scanProfile(tx.QueryRowContext(ctx, profileSelect+` WHERE user_id = ?`, userID))
		if err != nil {
			return fmt.Errorf("load profile %s: %w", userID, err)
		}

		activityAt := now
		if evaluatedAt != nil {
			activityAt = evaluatedAt.UTC()
		}

		xp := progress.XPForScore(int(score.Int64), multiplier)
		updated := progress.ApplyActivity(*profile, activityAt)
		updated.XP += xp
		outcome.XPAwarded = xp

		stats, err := completionStats(ctx, tx, userID)
		if err != nil {
			return err
		}

		catalog, err := achievementCatalog(ctx, tx)
		if err != nil {
			return err
		}
		unlocked, err := unlockedKeys(ctx, tx, userID)
		if err != nil {
			return err
		}

		// Rewards can satisfy further XP predicates, so evaluate until stable.
		for {
			stats.XP = updated.XP
			stats.CurrentStreak = updated.CurrentStreak
			stats.LongestStreak = updated.LongestStreak

			eligible := progress.Eligible(catalog, *stats, unlocked)
			if len(eligible) == 0 {
				break
			}
			for _, a := range eligible {
				unlocked[a.Key] = true
				res, err := tx.ExecContext(ctx, `
INSERT INTO user_achievements (user_id, achievement_key, submission_id, unlocked_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id, achievement_key) DO NOTHING
`, userID, a.Key, submissionID, now)
				if err != nil {
					return fmt.Errorf("unlock %s: %w", a.Key, err)
				}
				if n, _ := res.RowsAffected(); n == 1 {
					updated.XP += a.XPReward
					outcome.XPAwarded += a.XPReward
					outcome.Unlocked = append(outcome.Unlocked, a)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE profiles
SET xp = ?, current_streak = ?, longest_streak = ?, last_activity_date = ?
WHERE user_id = ?
`, updated.XP, updated.CurrentStreak, updated.LongestStreak, formatDate(updated.LastActivityDate), userID); err != nil {
			return fmt.Errorf("update profile %s: %w", userID, err)
		}

		outcome.CurrentStreak = updated.CurrentStreak
		return nil
	})
	if err != nil {
		log.Error("failed to apply progress for %s: %v", submissionID, err)
		return nil, err
	}

	if outcome.AlreadyApplied {
		log.Debug("progress already applied: submission_id=%s", submissionID)
	} else {
		log.Info("progress applied: submission_id=%s, xp=%d, streak=%d, unlocked=%d",
			submissionID, outcome.XPAwarded, outcome.CurrentStreak, len(outcome.Unlocked))
	}
	return outcome, nil
}

func completionStats(ctx context.Context, q querier, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	err := q.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(DISTINCT challenge_id),
       COALESCE(SUM(CASE WHEN score = 100 THEN 1 ELSE 0 END), 0),
       COALESCE(MAX(score), 0)
FROM submissions
WHERE user_id = ? AND status = ?
`, userID, models.StatusCompleted).Scan(&stats.CompletedSubmissions, &stats.DistinctChallenges, &stats.PerfectScores, &stats.BestScore)
	if err != nil {
		return nil, fmt.Errorf("completion stats for %s: %w", userID, err)
	}
	return &stats, nil
}

func unlockedKeys(ctx context.Context, q rowsQuerier, userID string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT achievement_key FROM user_achievements WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]bool{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// RecordFailure counts a failed apply and pushes the event's next attempt out
// to schedule(attempts). Events are never given up on. It returns the new
// attempt count, or 0 when the event is already applied.
func (r *progressRepository) RecordFailure(ctx context.Context, submissionID string, cause error, schedule repository.RetrySchedule) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	var attempts int
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
UPDATE progress_events
SET attempts = attempts + 1, last_error = ?
WHERE submission_id = ? AND applied_at IS NULL
RETURNING attempts
`, msg, submissionID).Scan(&attempts)
		if errors.Is(err, sql.ErrNoRows) {
			attempts = 0
			return nil
		}
		if err != nil {
			return err
		}

		var next sql.NullTime
		if schedule != nil {
			next = sql.NullTime{Time: schedule(attempts).UTC(), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
UPDATE progress_events SET next_attempt_at = ? WHERE submission_id = ?
`, next, submissionID)
		return err
	})
	if err != nil {
		log.Error("failed to record progress failure: %v", err)
		return 0, err
	}
	log.Debug("progress failure recorded: submission_id=%s, attempts=%d", submissionID, attempts)
	return attempts, nil
}

// Pending lists unapplied events whose next attempt is due by dueBy.
func (r *progressRepository) Pending(ctx context.Context, dueBy time.Time, limit int) ([]models.ProgressEvent, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT submission_id, user_id, attempts, last_error, created_at, applied_at, next_attempt_at
FROM progress_events
WHERE applied_at IS NULL AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
ORDER BY created_at ASC
LIMIT ?
`, dueBy.UTC(), limit)
	if err != nil {
		log.Error("failed to list pending progress events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []models.ProgressEvent
	for rows.Next() {
		var e models.ProgressEvent
		if err := rows.Scan(&e.SubmissionID, &e.UserID, &e.Attempts, &e.LastError, &e.CreatedAt, &e.AppliedAt, &e.NextAttemptAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.NextAttemptAt = utcPtr(e.NextAttemptAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *progressRepository) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("loading stats: user_id=%s", userID)

	stats, err := completionStats(ctx, r.db, userID)
	if err != nil {
		log.Error("failed to load stats: %v", err)
		return nil, err
	}
	err = r.db.QueryRowContext(ctx, `
SELECT xp, current_streak, longest_streak FROM profiles WHERE user_id = ?
`, userID).Scan(&stats.XP, &stats.CurrentStreak, &stats.LongestStreak)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to load profile totals: %v", err)
		return nil, err
	}
	return stats, nil
}
