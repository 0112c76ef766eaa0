package worker

import (
	"context"

	"github.com/vytor/skillforge/internal/models"
)

// EvaluationRunner grades one submission end to end.
// Defined here so worker does not import services.
type EvaluationRunner interface {
	RunEvaluation(ctx context.Context, submissionID string) error
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// ProgressApplier applies a completed submission's progress event.
type ProgressApplier interface {
	Process(ctx context.Context, submissionID string) (*models.ProgressOutcome, error)
}
