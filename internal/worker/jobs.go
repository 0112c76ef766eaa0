package worker

import (
	"context"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
)

type EvaluateSubmissionJob struct {
	Runner       EvaluationRunner
	SubmissionID string
}

func (j *EvaluateSubmissionJob) Name() string { return "evaluate_submission" }

func (j *EvaluateSubmissionJob) Run(ctx context.Context) error {
	ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithField("submission_id", j.SubmissionID))
	return j.Runner.RunEvaluation(ctx, j.SubmissionID)
}

// NotifyJob delivers one notification. Failures are logged by the pool and
// never retried.
type NotifyJob struct {
	Notifier     Notifier
	Notification models.Notification
}

func (j *NotifyJob) Name() string { return "notify_" + string(j.Notification.Kind) }

func (j *NotifyJob) Run(ctx context.Context) error {
	return j.Notifier.Notify(ctx, j.Notification)
}

type ApplyProgressJob struct {
	Applier      ProgressApplier
	SubmissionID string
}

func (j *ApplyProgressJob) Name() string { return "apply_progress" }

func (j *ApplyProgressJob) Run(ctx context.Context) error {
	_, err := j.Applier.Process(ctx, j.SubmissionID)
	return err
}
