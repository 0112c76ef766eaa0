package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/evaluator"
	"github.com/vytor/skillforge/internal/lifecycle"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// EvaluationService sends pending submissions to the grader and records the outcome
type EvaluationService interface {
	RunEvaluation(ctx context.Context, submissionID string) error
}

type evaluationService struct {
	submissions   SubmissionService
	challengeRepo repository.ChallengeRepository
	client        evaluator.ClientInterface
	timeout       time.Duration
}

// NewEvaluationService creates a new EvaluationService
func NewEvaluationService(submissions SubmissionService, challengeRepo repository.ChallengeRepository, client evaluator.ClientInterface, timeout time.Duration) EvaluationService {
	return &evaluationService{
		submissions:   submissions,
		challengeRepo: challengeRepo,
		client:        client,
		timeout:       timeout,
	}
}

// RunEvaluation moves a pending submission to evaluating, calls the grader
// under the evaluation timeout and completes or fails the submission.
// Submissions already past pending are left alone.
func (s *evaluationService) RunEvaluation(ctx context.Context, submissionID string) error {
	log := logger.FromContext(ctx).WithPrefix("evaluation")

	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return err
	}
	if !lifecycle.Begin.Allows(sub.Status) {
		log.Debug("skipping evaluation: id=%s, status=%s", submissionID, sub.Status)
		return nil
	}

	challenge, err := s.challengeRepo.Get(ctx, sub.ChallengeID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if challenge == nil {
		return errors.NewNotFoundError("challenge", sub.ChallengeID)
	}

	if _, err := s.submissions.BeginEvaluation(ctx, submissionID); err != nil {
		if errors.HasCode(err, errors.ErrCodeInvalidTransition) {
			log.Debug("evaluation claimed elsewhere: id=%s", submissionID)
			return nil
		}
		return err
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	body, err := s.client.Evaluate(evalCtx, evaluator.Request{
		SubmissionID:  sub.ID,
		ChallengeSlug: challenge.Slug,
		Criteria:      challenge.Criteria,
		Payload:       sub.Payload,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown; the stale sweep fails it after the deadline.
			return ctx.Err()
		}
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			log.Warn("evaluation timed out: id=%s, after=%v", submissionID, time.Since(start))
			if _, ferr := s.submissions.MarkError(ctx, submissionID, models.CauseEvaluationTimeout); ferr != nil {
				return ferr
			}
			return errors.NewEvaluationTimeoutError(submissionID)
		}
		log.Error("evaluator failed: id=%s, error=%v", submissionID, err)
		if _, ferr := s.submissions.MarkError(ctx, submissionID, models.CauseEvaluatorFailure); ferr != nil {
			return ferr
		}
		return err
	}

	log.Debug("evaluator responded: id=%s, duration=%v, bytes=%d", submissionID, time.Since(start), len(body))
	_, err = s.submissions.SubmitEvaluation(ctx, submissionID, body)
	return err
}
