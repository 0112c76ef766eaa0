package jobs

import "github.com/vytor/skillforge/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueEvaluation(submissionID string) error
	EnqueueNotification(n models.Notification) error
	EnqueueProgress(submissionID string) error
}
