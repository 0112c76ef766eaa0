package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/jobs"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/retry"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/testutil/mocks"
	"github.com/vytor/skillforge/internal/worker"
)

// steadyBackoff doubles from one minute with no jitter.
var steadyBackoff = retry.Config{InitialDelay: time.Minute, MaxDelay: time.Hour, Multiplier: 2}

func TestProcess_InvalidatesCacheOnlyWhenXPChanged(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	boardCache := new(mocks.MockLeaderboardCache)
	svc := services.NewProgressService(repo, boardCache, nil, steadyBackoff, fixedClock)

	repo.On("Apply", ctx, "s1", wednesday).Return(&models.ProgressOutcome{SubmissionID: "s1", XPAwarded: 143}, nil).Once()
	boardCache.On("Invalidate", ctx).Return(nil).Once()

	outcome, err := svc.Process(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 143, outcome.XPAwarded)

	repo.On("Apply", ctx, "s1", wednesday).Return(&models.ProgressOutcome{SubmissionID: "s1", AlreadyApplied: true}, nil).Once()
	outcome, err = svc.Process(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, outcome.AlreadyApplied)

	boardCache.AssertExpectations(t)
}

func TestProcess_UnknownSubmission(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	svc := services.NewProgressService(repo, nil, nil, steadyBackoff, fixedClock)

	repo.On("Apply", ctx, "nope", wednesday).Return(nil, repository.ErrNotFound)

	_, err := svc.Process(ctx, "nope")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	repo.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_FailureSchedulesNextAttemptWithBackoff(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	svc := services.NewProgressService(repo, nil, nil, steadyBackoff, fixedClock)

	repo.On("Apply", ctx, "s1", wednesday).Return(nil, assertErr("database is locked"))
	repo.On("RecordFailure", mock.Anything, "s1", mock.Anything, mock.MatchedBy(func(schedule repository.RetrySchedule) bool {
		return schedule(1).Equal(wednesday.Add(time.Minute)) &&
			schedule(3).Equal(wednesday.Add(4*time.Minute)) &&
			schedule(40).Equal(wednesday.Add(time.Hour))
	})).Return(1, nil)

	_, err := svc.Process(ctx, "s1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
	repo.AssertExpectations(t)
}

func TestRetryPending_DispatchesDueEventsToQueue(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	svc := services.NewProgressService(repo, nil, queue, steadyBackoff, fixedClock)

	repo.On("Pending", ctx, wednesday, 20).Return([]models.ProgressEvent{
		{SubmissionID: "a", Attempts: 1},
		{SubmissionID: "b", Attempts: 9},
	}, nil)
	queue.On("EnqueueProgress", "a").Return(nil)
	queue.On("EnqueueProgress", "b").Return(nil)

	dispatched, err := svc.RetryPending(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)

	repo.AssertExpectations(t)
	queue.AssertExpectations(t)
	repo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryPending_FullQueueEndsBatch(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	svc := services.NewProgressService(repo, nil, queue, steadyBackoff, fixedClock)

	repo.On("Pending", ctx, wednesday, 20).Return([]models.ProgressEvent{
		{SubmissionID: "a"}, {SubmissionID: "b"}, {SubmissionID: "c"},
	}, nil)
	queue.On("EnqueueProgress", "a").Return(nil)
	queue.On("EnqueueProgress", "b").Return(worker.ErrQueueFull)

	dispatched, err := svc.RetryPending(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatched)
	queue.AssertNotCalled(t, "EnqueueProgress", "c")
}

func TestRetryPending_AppliesInlineWithoutApplier(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	svc := services.NewProgressService(repo, nil, queue, steadyBackoff, fixedClock)

	repo.On("Pending", ctx, wednesday, 20).Return([]models.ProgressEvent{
		{SubmissionID: "a", Attempts: 1},
		{SubmissionID: "b", Attempts: 2},
	}, nil)
	queue.On("EnqueueProgress", mock.Anything).Return(jobs.ErrNoProgressApplier)
	repo.On("Apply", ctx, "a", wednesday).Return(&models.ProgressOutcome{SubmissionID: "a"}, nil)
	repo.On("Apply", ctx, "b", wednesday).Return(nil, assertErr("constraint failed"))
	repo.On("RecordFailure", mock.Anything, "b", mock.Anything, mock.Anything).Return(3, nil)

	dispatched, err := svc.RetryPending(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)
	repo.AssertExpectations(t)
}

func TestRetryPending_NothingDue(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	svc := services.NewProgressService(repo, nil, queue, steadyBackoff, fixedClock)

	repo.On("Pending", ctx, wednesday, 20).Return(nil, nil)

	dispatched, err := svc.RetryPending(ctx, 20)
	require.NoError(t, err)
	assert.Zero(t, dispatched)
	queue.AssertNotCalled(t, "EnqueueProgress", mock.Anything)
}
