package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/skillforge/internal/entitlement"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/jobs"
	"github.com/vytor/skillforge/internal/lifecycle"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/scoring"
)

const maxCauseLength = 200

const (
	// DefaultPendingRedispatchAfter is how long a submission may sit in
	// pending before the recovery sweep enqueues it again.
	DefaultPendingRedispatchAfter = time.Minute

	pendingTimeoutFactor = 3
)

// CreateSubmissionInput is what a learner sends to start an attempt.
type CreateSubmissionInput struct {
	ChallengeID      int64           `json:"challenge_id"`
	Payload          json.RawMessage `json:"payload"`
	TimeTakenSeconds *int            `json:"time_taken_seconds"`
}

// SubmissionConfig carries the limits SubmissionService enforces.
//
// A pending submission older than PendingRedispatchAfter is enqueued for
// evaluation again; one older than PendingTimeout is abandoned with cause
// evaluation_timeout. Zero values fall back to one minute and three
// evaluation timeouts.
type SubmissionConfig struct {
	FreeChallengesPerWeek  int
	MaxPayloadBytes        int
	EvaluationTimeout      time.Duration
	PendingRedispatchAfter time.Duration
	PendingTimeout         time.Duration
}

// SubmissionService drives submissions through their lifecycle
type SubmissionService interface {
	Create(ctx context.Context, rc entitlement.RequestContext, input CreateSubmissionInput) (*models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	GetForUser(ctx context.Context, userID, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	BeginEvaluation(ctx context.Context, id string) (*models.Submission, error)
	CompleteWithScore(ctx context.Context, id string, raw models.RawBreakdown) (*models.Submission, error)
	SubmitEvaluation(ctx context.Context, id string, body []byte) (*models.Submission, error)
	MarkError(ctx context.Context, id string, cause string) (*models.Submission, error)
	ExpireStale(ctx context.Context, limit int) (int, error)
	RecoverPending(ctx context.Context, limit int) (*PendingRecovery, error)
}

// PendingRecovery summarizes one RecoverPending sweep.
type PendingRecovery struct {
	Redispatched int
	Expired      int
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	challengeRepo  repository.ChallengeRepository
	progress       ProgressService
	jobQueue       jobs.JobQueue
	cfg            SubmissionConfig
	now            Clock
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	progress ProgressService,
	jobQueue jobs.JobQueue,
	cfg SubmissionConfig,
	now Clock,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		challengeRepo:  challengeRepo,
		progress:       progress,
		jobQueue:       jobQueue,
		cfg:            cfg,
		now:            clockOr(now),
	}
}

// Create starts a new attempt. The quota check, the single-active-attempt
// check and attempt numbering happen in the store's write transaction, so
// concurrent requests cannot both pass a quota of one.
func (s *submissionService) Create(ctx context.Context, rc entitlement.RequestContext, input CreateSubmissionInput) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")
	log.Debug("creating submission: user_id=%s, challenge_id=%d, tier=%s", rc.UserID, input.ChallengeID, rc.Tier)

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	challenge, err := s.challengeRepo.Get(ctx, input.ChallengeID)
	if err != nil {
		log.Error("failed to get challenge: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if challenge == nil {
		return nil, errors.NewNotFoundError("challenge", input.ChallengeID)
	}
	if !challenge.IsAvailable(rc.Now) {
		return nil, errors.NewChallengeInactiveError(challenge.ID)
	}

	ns := models.NewSubmission{
		ID:               uuid.NewString(),
		UserID:           rc.UserID,
		ChallengeID:      challenge.ID,
		Payload:          input.Payload,
		TimeTakenSeconds: input.TimeTakenSeconds,
		CreatedAt:        rc.Now,
	}

	sub, err := s.submissionRepo.CreateAttempt(ctx, ns, func(usage models.WeeklyUsage, active *models.Submission) error {
		d := entitlement.CanStartAttempt(rc, *challenge, usage, s.cfg.FreeChallengesPerWeek)
		if !d.Allowed {
			return errors.NewEntitlementDeniedError(d.Reason, d.Used, d.Limit, d.ResetsAt)
		}
		if active != nil {
			return errors.NewAttemptInProgressError(active.ID)
		}
		return nil
	})
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			log.Info("submission rejected: user_id=%s, challenge_id=%d, code=%s", rc.UserID, challenge.ID, appErr.Code)
			return nil, appErr
		}
		log.Error("failed to create submission: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("submission created: id=%s, attempt=%d", sub.ID, sub.AttemptNumber)

	if err := s.jobQueue.EnqueueEvaluation(sub.ID); err != nil {
		if stderrors.Is(err, jobs.ErrNoEvaluator) {
			log.Debug("no evaluator configured, awaiting external grader: id=%s", sub.ID)
		} else {
			log.Warn("failed to enqueue evaluation, left for recovery sweep: id=%s, error=%v", sub.ID, err)
		}
	}
	return sub, nil
}

func (s *submissionService) validateInput(input CreateSubmissionInput) error {
	if input.ChallengeID <= 0 {
		return errors.NewValidationError("challenge_id", "must be a positive id")
	}
	if len(input.Payload) == 0 {
		return errors.NewValidationError("payload", "cannot be empty")
	}
	if s.cfg.MaxPayloadBytes > 0 && len(input.Payload) > s.cfg.MaxPayloadBytes {
		return errors.NewValidationError("payload", fmt.Sprintf("exceeds %d bytes", s.cfg.MaxPayloadBytes))
	}
	if !json.Valid(input.Payload) {
		return errors.NewValidationError("payload", "must be valid JSON")
	}
	if input.TimeTakenSeconds != nil && *input.TimeTakenSeconds < 0 {
		return errors.NewValidationError("time_taken_seconds", "cannot be negative")
	}
	return nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.submissionRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("submissions").Error("failed to get submission: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("submission", id)
	}
	return sub, nil
}

// GetForUser hides other users' submissions behind NOT_FOUND.
func (s *submissionService) GetForUser(ctx context.Context, userID, id string) (*models.Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, errors.NewNotFoundError("submission", id)
	}
	return sub, nil
}

func (s *submissionService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, errors.NewValidationError("status", "unknown submission status")
	}

	subs, err := s.submissionRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list submissions: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.submissionRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count submissions: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return subs, total, nil
}

func (s *submissionService) BeginEvaluation(ctx context.Context, id string) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	if err := s.submissionRepo.BeginEvaluation(ctx, id, s.now()); err != nil {
		log.Warn("begin evaluation rejected: id=%s, error=%v", id, err)
		return nil, transitionError(id, lifecycle.Begin.To, err)
	}
	log.Info("evaluation started: id=%s", id)
	return s.Get(ctx, id)
}

// CompleteWithScore grades the submission and applies its progress effects.
// A breakdown that violates the evaluator contract fails the submission with
// cause malformed_breakdown instead.
func (s *submissionService) CompleteWithScore(ctx context.Context, id string, raw models.RawBreakdown) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.Complete.Allows(sub.Status) {
		return nil, errors.NewInvalidTransitionError(id, string(sub.Status), string(lifecycle.Complete.To))
	}

	challenge, err := s.challengeRepo.Get(ctx, sub.ChallengeID)
	if err != nil {
		log.Error("failed to get challenge: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if challenge == nil {
		return nil, errors.NewNotFoundError("challenge", sub.ChallengeID)
	}

	result, err := scoring.Aggregate(raw, challenge.Criteria)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeMalformedBreakdown) {
			return nil, s.rejectMalformed(ctx, sub, err)
		}
		log.Error("failed to aggregate score: id=%s, error=%v", id, err)
		return nil, passthrough(err)
	}

	at := s.now()
	if err := s.submissionRepo.Complete(ctx, id, result.Total, result.Breakdown, at); err != nil {
		log.Warn("completion rejected: id=%s, error=%v", id, err)
		return nil, transitionError(id, lifecycle.Complete.To, err)
	}
	log.Info("submission completed: id=%s, score=%d", id, result.Total)

	if _, err := s.progress.Process(ctx, id); err != nil {
		log.Warn("progress deferred to retry: id=%s, error=%v", id, err)
	}

	score := result.Total
	s.notify(ctx, sub, models.NotificationSubmissionCompleted, &score, nil)

	return s.Get(ctx, id)
}

// SubmitEvaluation accepts an evaluator payload as received on the wire.
func (s *submissionService) SubmitEvaluation(ctx context.Context, id string, body []byte) (*models.Submission, error) {
	raw, err := scoring.DecodeBreakdown(body)
	if err != nil {
		sub, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if !lifecycle.Complete.Allows(sub.Status) {
			return nil, errors.NewInvalidTransitionError(id, string(sub.Status), string(lifecycle.Complete.To))
		}
		return nil, s.rejectMalformed(ctx, sub, err)
	}
	return s.CompleteWithScore(ctx, id, raw)
}

func (s *submissionService) rejectMalformed(ctx context.Context, sub *models.Submission, cause error) error {
	log := logger.FromContext(ctx).WithPrefix("submissions")
	log.Warn("malformed breakdown: id=%s, error=%v", sub.ID, cause)

	if _, err := s.fail(ctx, sub, models.CauseMalformedBreakdown); err != nil {
		return err
	}
	return cause
}

func (s *submissionService) MarkError(ctx context.Context, id string, cause string) (*models.Submission, error) {
	if cause == "" {
		return nil, errors.NewValidationError("cause", "cannot be empty")
	}
	if len(cause) > maxCauseLength {
		return nil, errors.NewValidationError("cause", fmt.Sprintf("longer than %d characters", maxCauseLength))
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.fail(ctx, sub, cause)
}

func (s *submissionService) fail(ctx context.Context, sub *models.Submission, cause string) (*models.Submission, error) {
	return s.terminate(ctx, sub, lifecycle.Fail, cause)
}

// terminate moves sub to error along t, which is either Fail or Abandon.
func (s *submissionService) terminate(ctx context.Context, sub *models.Submission, t lifecycle.Transition, cause string) (*models.Submission, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	store := s.submissionRepo.Fail
	if t == lifecycle.Abandon {
		store = s.submissionRepo.Abandon
	}
	if err := store(ctx, sub.ID, cause, s.now()); err != nil {
		log.Warn("%s rejected: id=%s, error=%v", t.Name, sub.ID, err)
		return nil, transitionError(sub.ID, t.To, err)
	}
	log.Info("submission failed: id=%s, from=%s, cause=%s", sub.ID, t.From, cause)

	s.notify(ctx, sub, models.NotificationSubmissionFailed, nil, &cause)
	return s.Get(ctx, sub.ID)
}

// ExpireStale fails submissions that have been evaluating longer than the
// evaluation timeout, e.g. after a restart lost the in-flight job.
func (s *submissionService) ExpireStale(ctx context.Context, limit int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	cutoff := s.now().Add(-s.cfg.EvaluationTimeout)
	stale, err := s.submissionRepo.StaleEvaluations(ctx, cutoff, limit)
	if err != nil {
		log.Error("failed to list stale evaluations: %v", err)
		return 0, errors.NewInternalError(err)
	}

	expired := 0
	for i := range stale {
		if _, err := s.fail(ctx, &stale[i], models.CauseEvaluationTimeout); err != nil {
			if errors.HasCode(err, errors.ErrCodeInvalidTransition) {
				continue
			}
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		log.Info("expired stale evaluations: count=%d", expired)
	}
	return expired, nil
}

// RecoverPending handles submissions whose evaluation job never ran, for
// instance because the queue was full when they were created. Rows past the
// pending timeout are abandoned so the learner can try again; younger ones
// are enqueued once more. A queue that is still full ends the redispatch
// part of the sweep.
func (s *submissionService) RecoverPending(ctx context.Context, limit int) (*PendingRecovery, error) {
	log := logger.FromContext(ctx).WithPrefix("submissions")

	now := s.now()
	stale, err := s.submissionRepo.StalePending(ctx, now.Add(-s.cfg.PendingRedispatchAfter), limit)
	if err != nil {
		log.Error("failed to list stale pending submissions: %v", err)
		return nil, errors.NewInternalError(err)
	}

	result := &PendingRecovery{}
	expireBefore := now.Add(-s.cfg.PendingTimeout)
	redispatch := true

	for i := range stale {
		sub := &stale[i]
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if sub.CreatedAt.Before(expireBefore) {
			if _, err := s.terminate(ctx, sub, lifecycle.Abandon, models.CauseEvaluationTimeout); err != nil {
				if errors.HasCode(err, errors.ErrCodeInvalidTransition) || errors.HasCode(err, errors.ErrCodeNotFound) {
					continue
				}
				return result, err
			}
			result.Expired++
			continue
		}

		if !redispatch {
			continue
		}
		if err := s.jobQueue.EnqueueEvaluation(sub.ID); err != nil {
			if !stderrors.Is(err, jobs.ErrNoEvaluator) {
				log.Warn("redispatch stopped: id=%s, error=%v", sub.ID, err)
			}
			redispatch = false
			continue
		}
		result.Redispatched++
	}

	if result.Redispatched > 0 || result.Expired > 0 {
		log.Info("recovered pending submissions: redispatched=%d, expired=%d", result.Redispatched, result.Expired)
	}
	return result, nil
}

// notify is fire-and-forget; delivery problems never affect the transition.
func (s *submissionService) notify(ctx context.Context, sub *models.Submission, kind models.NotificationKind, score *int, cause *string) {
	n := models.Notification{
		ID:           uuid.NewString(),
		Kind:         kind,
		UserID:       sub.UserID,
		SubmissionID: sub.ID,
		ChallengeID:  sub.ChallengeID,
		Score:        score,
		Cause:        cause,
		CreatedAt:    s.now(),
	}
	if err := s.jobQueue.EnqueueNotification(n); err != nil {
		logger.FromContext(ctx).WithPrefix("submissions").Warn("failed to enqueue notification: id=%s, error=%v", sub.ID, err)
	}
}
