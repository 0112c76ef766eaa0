package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vytor/skillforge/internal/cache"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/jobs"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/retry"
)

// DefaultProgressBackoff spaces out re-applies of a failing progress event.
// MaxAttempts is unused: events are retried until they apply.
func DefaultProgressBackoff() retry.Config {
	return retry.Config{
		InitialDelay: 30 * time.Second,
		MaxDelay:     30 * time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// ProgressService applies XP, streak and achievement effects of completed submissions
type ProgressService interface {
	Process(ctx context.Context, submissionID string) (*models.ProgressOutcome, error)
	RetryPending(ctx context.Context, limit int) (int, error)
	Stats(ctx context.Context, userID string) (*models.UserStats, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	cache        cache.LeaderboardCache
	jobQueue     jobs.JobQueue
	backoff      retry.Config
	now          Clock
}

// NewProgressService creates a new ProgressService. boardCache and jobQueue
// may be nil; without a queue, due events are re-applied inline.
func NewProgressService(
	progressRepo repository.ProgressRepository,
	boardCache cache.LeaderboardCache,
	jobQueue jobs.JobQueue,
	backoff retry.Config,
	now Clock,
) ProgressService {
	if backoff.InitialDelay <= 0 {
		backoff = DefaultProgressBackoff()
	}
	return &progressService{
		progressRepo: progressRepo,
		cache:        boardCache,
		jobQueue:     jobQueue,
		backoff:      backoff,
		now:          clockOr(now),
	}
}

// Process applies one submission's progress event. Repeated calls are no-ops.
// A failure is recorded on the event along with when it is next due, so the
// retry sweep picks it up again.
func (s *progressService) Process(ctx context.Context, submissionID string) (*models.ProgressOutcome, error) {
	log := logger.FromContext(ctx).WithPrefix("progress")

	outcome, err := s.progressRepo.Apply(ctx, submissionID, s.now())
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("progress event", submissionID)
		}
		log.Error("failed to apply progress: submission_id=%s, error=%v", submissionID, err)

		// Record with a fresh context; ctx may be the reason Apply failed.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		failedAt := s.now()
		attempts, rerr := s.progressRepo.RecordFailure(recordCtx, submissionID, err, func(attempts int) time.Time {
			return failedAt.Add(s.backoff.Backoff(attempts))
		})
		if rerr != nil {
			log.Error("failed to record progress failure: %v", rerr)
		} else if attempts > 0 {
			log.Warn("progress apply failed: submission_id=%s, attempts=%d, next_in=%s",
				submissionID, attempts, s.backoff.Delay(attempts))
		}
		return nil, errors.NewInternalError(err)
	}

	if !outcome.AlreadyApplied && outcome.XPAwarded > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn("failed to invalidate leaderboard cache: %v", err)
		}
	}
	return outcome, nil
}

// RetryPending dispatches every event that is due to the job queue and
// returns how many were handed off. A full queue ends the batch; the rest
// stay due for the next sweep.
func (s *progressService) RetryPending(ctx context.Context, limit int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("progress")

	events, err := s.progressRepo.Pending(ctx, s.now(), limit)
	if err != nil {
		log.Error("failed to list pending progress events: %v", err)
		return 0, errors.NewInternalError(err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	dispatched := 0
	for _, e := range events {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}
		if err := s.dispatch(ctx, e.SubmissionID); err != nil {
			log.Warn("stopping progress retry batch: submission_id=%s, error=%v", e.SubmissionID, err)
			break
		}
		dispatched++
	}
	log.Info("retried pending progress: due=%d, dispatched=%d", len(events), dispatched)
	return dispatched, nil
}

// dispatch hands one event to the worker pool, or applies it inline when no
// queue or applier is available. An inline failure is already recorded by
// Process and does not stop the batch.
func (s *progressService) dispatch(ctx context.Context, submissionID string) error {
	if s.jobQueue != nil {
		err := s.jobQueue.EnqueueProgress(submissionID)
		if !stderrors.Is(err, jobs.ErrNoProgressApplier) {
			return err
		}
	}
	if _, err := s.Process(ctx, submissionID); err != nil {
		logger.FromContext(ctx).WithPrefix("progress").Debug("inline retry failed: submission_id=%s", submissionID)
	}
	return nil
}

func (s *progressService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.progressRepo.Stats(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("progress").Error("failed to load stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}
