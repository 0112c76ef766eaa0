package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skillforge/internal/entitlement"
	"github.com/vytor/skillforge/internal/lifecycle"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

var submissionColumns = []string{
	"id", "user_id", "challenge_id", "status", "attempt_number", "payload", "score",
	"score_breakdown", "time_taken_seconds", "error_cause", "created_at",
	"evaluation_started_at", "evaluated_at",
}

const submissionSelect = `
SELECT id, user_id, challenge_id, status, attempt_number, payload, score,
       score_breakdown, time_taken_seconds, error_cause, created_at,
       evaluation_started_at, evaluated_at
FROM submissions`

type submissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new SubmissionRepository implementation
func NewSubmissionRepository(db *sql.DB) repository.SubmissionRepository {
	return &submissionRepository{db: db}
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		s         models.Submission
		payload   sql.NullString
		breakdown sql.NullString
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.ChallengeID, &s.Status, &s.AttemptNumber, &payload, &s.Score,
		&breakdown, &s.TimeTakenSeconds, &s.ErrorCause, &s.CreatedAt,
		&s.EvaluationStartedAt, &s.EvaluatedAt); err != nil {
		return nil, err
	}
	if payload.Valid {
		s.Payload = json.RawMessage(payload.String)
	}
	if breakdown.Valid {
		if err := json.Unmarshal([]byte(breakdown.String), &s.ScoreBreakdown); err != nil {
			return nil, err
		}
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.EvaluationStartedAt = utcPtr(s.EvaluationStartedAt)
	s.EvaluatedAt = utcPtr(s.EvaluatedAt)
	return &s, nil
}

// CreateAttempt runs the admission check, attempt numbering and insert in one
// immediate transaction so concurrent requests for the same user serialize.
func (r *submissionRepository) CreateAttempt(ctx context.Context, ns models.NewSubmission, admit repository.AdmitFunc) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("creating attempt: user_id=%s, challenge_id=%d", ns.UserID, ns.ChallengeID)

	createdAt := ns.CreatedAt.UTC()
	var created *models.Submission

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		usage, err := weeklyUsage(ctx, tx, ns.UserID, createdAt)
		if err != nil {
			log.Error("failed to count weekly usage: %v", err)
			return err
		}

		active, err := scanSubmission(tx.QueryRowContext(ctx, submissionSelect+`
WHERE user_id = ? AND challenge_id = ? AND status IN (?, ?)
ORDER BY attempt_number DESC
LIMIT 1
`, ns.UserID, ns.ChallengeID, models.StatusPending, models.StatusEvaluating))
		if errors.Is(err, sql.ErrNoRows) {
			active = nil
		} else if err != nil {
			log.Error("failed to look up active attempt: %v", err)
			return err
		}

		if err := admit(usage, active); err != nil {
			log.Debug("attempt not admitted: %v", err)
			return err
		}

		var attempt int
		if err := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(attempt_number), 0) + 1
FROM submissions
WHERE user_id = ? AND challenge_id = ?
`, ns.UserID, ns.ChallengeID).Scan(&attempt); err != nil {
			log.Error("failed to compute attempt number: %v", err)
			return err
		}

		var payload sql.NullString
		if len(ns.Payload) > 0 {
			payload = sql.NullString{String: string(ns.Payload), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO submissions (id, user_id, challenge_id, status, attempt_number, payload, time_taken_seconds, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, ns.ID, ns.UserID, ns.ChallengeID, models.StatusPending, attempt, payload, ns.TimeTakenSeconds, createdAt); err != nil {
			log.Error("failed to insert submission: %v", err)
			return err
		}

		created = &models.Submission{
			ID:               ns.ID,
			UserID:           ns.UserID,
			ChallengeID:      ns.ChallengeID,
			Status:           models.StatusPending,
			AttemptNumber:    attempt,
			Payload:          ns.Payload,
			TimeTakenSeconds: ns.TimeTakenSeconds,
			CreatedAt:        createdAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("submission created: id=%s, attempt=%d", created.ID, created.AttemptNumber)
	return created, nil
}

// weeklyUsage counts attempts created in now's quota week. Attempts that ended
// in a system error do not consume quota.
func weeklyUsage(ctx context.Context, q querier, userID string, now time.Time) (models.WeeklyUsage, error) {
	start := entitlement.WeekStart(now)
	end := entitlement.NextWeekStart(now)

	usage := models.WeeklyUsage{WeekStart: start, ResetsAt: end}
	err := q.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM submissions
WHERE user_id = ? AND created_at >= ? AND created_at < ? AND status != ?
`, userID, start, end, models.StatusError).Scan(&usage.Used)
	return usage, err
}

func (r *submissionRepository) WeeklyUsage(ctx context.Context, userID string, now time.Time) (models.WeeklyUsage, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("counting weekly usage: user_id=%s", userID)

	usage, err := weeklyUsage(ctx, r.db, userID, now)
	if err != nil {
		log.Error("failed to count weekly usage: %v", err)
	}
	return usage, err
}

func (r *submissionRepository) Get(ctx context.Context, id string) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("getting submission: id=%s", id)

	s, err := scanSubmission(r.db.QueryRowContext(ctx, submissionSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("submission not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get submission: %v", err)
		return nil, err
	}
	return s, nil
}

func applySubmissionFilter(query squirrel.SelectBuilder, filter models.SubmissionFilter) squirrel.SelectBuilder {
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.ChallengeID != 0 {
		query = query.Where(squirrel.Eq{"challenge_id": filter.ChallengeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	return query
}

func (r *submissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("listing submissions: user_id=%s, challenge_id=%d, status=%s", filter.UserID, filter.ChallengeID, filter.Status)

	query := applySubmissionFilter(sqlBuilder.Select(submissionColumns...).From("submissions"), filter).
		OrderBy("created_at DESC", "id DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list submissions: %v", err)
		return nil, err
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			log.Error("failed to scan submission row: %v", err)
			return nil, err
		}
		submissions = append(submissions, *s)
	}

	log.Debug("found %d submissions", len(submissions))
	return submissions, rows.Err()
}

func (r *submissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")

	sqlStr, args, err := applySubmissionFilter(sqlBuilder.Select("COUNT(*)").From("submissions"), filter).ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count submissions: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) BeginEvaluation(ctx context.Context, id string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("beginning evaluation: id=%s", id)

	err := transition(ctx, r.db, id, lifecycle.Begin, map[string]any{
		"evaluation_started_at": at.UTC(),
	})
	if err != nil && !isConflict(err) {
		log.Error("failed to begin evaluation: %v", err)
	}
	return err
}

// Complete stores the grade and writes the progress outbox row in the same
// transaction, so a completed submission always has exactly one event.
func (r *submissionRepository) Complete(ctx context.Context, id string, score int, breakdown models.ScoreBreakdown, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("completing submission: id=%s, score=%d", id, score)

	encoded, err := nullJSON(breakdown)
	if err != nil {
		return err
	}
	at = at.UTC()

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		err := transition(ctx, tx, id, lifecycle.Complete, map[string]any{
			"score":           score,
			"score_breakdown": encoded,
			"evaluated_at":    at,
		})
		if err != nil {
			if !isConflict(err) {
				log.Error("failed to complete submission: %v", err)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO progress_events (submission_id, user_id, created_at)
SELECT id, user_id, ? FROM submissions WHERE id = ?
`, at, id); err != nil {
			log.Error("failed to write progress event: %v", err)
			return err
		}
		return nil
	})
}

func (r *submissionRepository) Fail(ctx context.Context, id string, cause string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("failing submission: id=%s, cause=%s", id, cause)

	err := transition(ctx, r.db, id, lifecycle.Fail, map[string]any{
		"error_cause":  cause,
		"evaluated_at": at.UTC(),
	})
	if err != nil && !isConflict(err) {
		log.Error("failed to mark submission error: %v", err)
	}
	return err
}

// Abandon moves a submission that was never picked up straight to error. The
// start time is stamped too so error rows always carry one.
func (r *submissionRepository) Abandon(ctx context.Context, id string, cause string, at time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")
	log.Debug("abandoning submission: id=%s, cause=%s", id, cause)

	at = at.UTC()
	err := transition(ctx, r.db, id, lifecycle.Abandon, map[string]any{
		"error_cause":           cause,
		"evaluation_started_at": squirrel.Expr("COALESCE(evaluation_started_at, ?)", at),
		"evaluated_at":          at,
	})
	if err != nil && !isConflict(err) {
		log.Error("failed to abandon submission: %v", err)
	}
	return err
}

func isConflict(err error) bool {
	var conflict *repository.StatusConflictError
	return errors.Is(err, repository.ErrNotFound) || errors.As(err, &conflict)
}

func (r *submissionRepository) StaleEvaluations(ctx context.Context, startedBefore time.Time, limit int) ([]models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, submissionSelect+`
WHERE status = ? AND evaluation_started_at < ?
ORDER BY evaluation_started_at ASC
LIMIT ?
`, models.StatusEvaluating, startedBefore.UTC(), limit)
	if err != nil {
		log.Error("failed to query stale evaluations: %v", err)
		return nil, err
	}
	defer rows.Close()

	var stale []models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, *s)
	}
	if len(stale) > 0 {
		log.Info("found %d stale evaluations", len(stale))
	}
	return stale, rows.Err()
}

// StalePending returns submissions still waiting for an evaluator that were
// created before createdBefore, oldest first.
func (r *submissionRepository) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submission_repo")

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, submissionSelect+`
WHERE status = ? AND created_at < ?
ORDER BY created_at ASC
LIMIT ?
`, models.StatusPending, createdBefore.UTC(), limit)
	if err != nil {
		log.Error("failed to query stale pending submissions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var stale []models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, *s)
	}
	if len(stale) > 0 {
		log.Info("found %d stale pending submissions", len(stale))
	}
	return stale, rows.Err()
}
