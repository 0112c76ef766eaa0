package jobs

import (
	"errors"
	"sync"

	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/worker"
)

// ErrNoEvaluator is returned when no evaluation runner is bound; the grader
// then drives submissions through the internal endpoints instead.
var ErrNoEvaluator = errors.New("no evaluation runner configured")

// ErrNoProgressApplier is returned by EnqueueProgress before Bind attaches an
// applier.
var ErrNoProgressApplier = errors.New("no progress applier configured")

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool     *worker.Pool
	notifier worker.Notifier

	mu       sync.RWMutex
	runner   worker.EvaluationRunner
	progress worker.ProgressApplier
}

// NewWorkerQueue creates a new WorkerQueue implementation. Evaluation and
// progress handlers depend on services that themselves enqueue jobs, so they
// are bound afterwards with Bind.
func NewWorkerQueue(pool *worker.Pool, notifier worker.Notifier) *WorkerQueue {
	return &WorkerQueue{pool: pool, notifier: notifier}
}

// Bind attaches the evaluation runner and progress applier. Either may be nil.
func (q *WorkerQueue) Bind(runner worker.EvaluationRunner, progress worker.ProgressApplier) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.runner = runner
	q.progress = progress
}

func (q *WorkerQueue) EnqueueEvaluation(submissionID string) error {
	q.mu.RLock()
	runner := q.runner
	q.mu.RUnlock()
	if runner == nil {
		return ErrNoEvaluator
	}
	return q.pool.Submit(&worker.EvaluateSubmissionJob{Runner: runner, SubmissionID: submissionID})
}

func (q *WorkerQueue) EnqueueNotification(n models.Notification) error {
	return q.pool.Submit(&worker.NotifyJob{Notifier: q.notifier, Notification: n})
}

func (q *WorkerQueue) EnqueueProgress(submissionID string) error {
	q.mu.RLock()
	progress := q.progress
	q.mu.RUnlock()
	if progress == nil {
		return ErrNoProgressApplier
	}
	return q.pool.Submit(&worker.ApplyProgressJob{Applier: progress, SubmissionID: submissionID})
}
