package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/jobs"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/worker"
)

type runnerFunc func(ctx context.Context, id string) error

func (f runnerFunc) RunEvaluation(ctx context.Context, id string) error { return f(ctx, id) }

type notifierFunc func(ctx context.Context, n models.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n models.Notification) error { return f(ctx, n) }

func TestWorkerQueue_EvaluationRequiresRunner(t *testing.T) {
	pool := worker.NewPool(1, 4)
	q := jobs.NewWorkerQueue(pool, notifierFunc(func(context.Context, models.Notification) error { return nil }))

	assert.ErrorIs(t, q.EnqueueEvaluation("s1"), jobs.ErrNoEvaluator)
	pool.Stop()
}

func TestWorkerQueue_DispatchesJobs(t *testing.T) {
	pool := worker.NewPool(2, 4)
	evaluated := make(chan string, 1)
	notified := make(chan models.Notification, 1)

	q := jobs.NewWorkerQueue(pool, notifierFunc(func(_ context.Context, n models.Notification) error {
		notified <- n
		return nil
	}))
	q.Bind(runnerFunc(func(_ context.Context, id string) error {
		evaluated <- id
		return nil
	}), nil)

	pool.Start(context.Background())
	defer pool.Stop()

	require.NoError(t, q.EnqueueEvaluation("s1"))
	require.NoError(t, q.EnqueueNotification(models.Notification{ID: "n1", Kind: models.NotificationSubmissionFailed}))

	select {
	case id := <-evaluated:
		assert.Equal(t, "s1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("evaluation job did not run")
	}
	select {
	case n := <-notified:
		assert.Equal(t, "n1", n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification job did not run")
	}

	assert.ErrorIs(t, q.EnqueueProgress("s1"), jobs.ErrNoProgressApplier)
}

type applierFunc func(ctx context.Context, id string) (*models.ProgressOutcome, error)

func (f applierFunc) Process(ctx context.Context, id string) (*models.ProgressOutcome, error) {
	return f(ctx, id)
}

func TestWorkerQueue_DispatchesProgress(t *testing.T) {
	pool := worker.NewPool(1, 4)
	applied := make(chan string, 1)

	q := jobs.NewWorkerQueue(pool, notifierFunc(func(context.Context, models.Notification) error { return nil }))
	q.Bind(nil, applierFunc(func(_ context.Context, id string) (*models.ProgressOutcome, error) {
		applied <- id
		return &models.ProgressOutcome{SubmissionID: id}, nil
	}))

	pool.Start(context.Background())
	defer pool.Stop()

	require.NoError(t, q.EnqueueProgress("s7"))
	select {
	case id := <-applied:
		assert.Equal(t, "s7", id)
	case <-time.After(2 * time.Second):
		t.Fatal("progress job did not run")
	}
}
