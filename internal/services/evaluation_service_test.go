package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/evaluator"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/testutil/mocks"
)

// mockSubmissionService implements the SubmissionService methods the
// evaluation runner calls.
type mockSubmissionService struct {
	services.SubmissionService
	mock.Mock
}

func (m *mockSubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *mockSubmissionService) BeginEvaluation(ctx context.Context, id string) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *mockSubmissionService) SubmitEvaluation(ctx context.Context, id string, body []byte) (*models.Submission, error) {
	args := m.Called(ctx, id, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *mockSubmissionService) MarkError(ctx context.Context, id string, cause string) (*models.Submission, error) {
	args := m.Called(ctx, id, cause)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func newEvaluationFixture(timeout time.Duration) (*mockSubmissionService, *mocks.MockChallengeRepository, *mocks.MockEvaluatorClient, services.EvaluationService) {
	subs := new(mockSubmissionService)
	challenges := new(mocks.MockChallengeRepository)
	client := new(mocks.MockEvaluatorClient)
	return subs, challenges, client, services.NewEvaluationService(subs, challenges, client, timeout)
}

func TestRunEvaluation_CompletesWithGraderResult(t *testing.T) {
	ctx := context.Background()
	subs, challenges, client, svc := newEvaluationFixture(time.Second)

	pending := &models.Submission{ID: "s1", ChallengeID: 7, Status: models.StatusPending, Payload: []byte(`{"nodes":[]}`)}
	body := []byte(`{"functionality":{"score":45,"max":50,"details":[]}}`)

	subs.On("Get", ctx, "s1").Return(pending, nil)
	challenges.On("Get", ctx, int64(7)).Return(rubricChallenge(), nil)
	subs.On("BeginEvaluation", ctx, "s1").Return(&models.Submission{ID: "s1", Status: models.StatusEvaluating}, nil)
	client.On("Evaluate", mock.Anything, mock.MatchedBy(func(r evaluator.Request) bool {
		return r.SubmissionID == "s1" && r.ChallengeSlug == "webhook-to-sheet" && len(r.Criteria) == 4
	})).Return(body, nil)
	subs.On("SubmitEvaluation", ctx, "s1", body).Return(&models.Submission{ID: "s1", Status: models.StatusCompleted}, nil)

	require.NoError(t, svc.RunEvaluation(ctx, "s1"))
	subs.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestRunEvaluation_TimeoutMarksError(t *testing.T) {
	ctx := context.Background()
	subs, challenges, client, svc := newEvaluationFixture(10 * time.Millisecond)

	subs.On("Get", ctx, "s1").Return(&models.Submission{ID: "s1", ChallengeID: 7, Status: models.StatusPending}, nil)
	challenges.On("Get", ctx, int64(7)).Return(rubricChallenge(), nil)
	subs.On("BeginEvaluation", ctx, "s1").Return(&models.Submission{ID: "s1", Status: models.StatusEvaluating}, nil)
	client.On("Evaluate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded)
	subs.On("MarkError", ctx, "s1", models.CauseEvaluationTimeout).Return(&models.Submission{ID: "s1", Status: models.StatusError}, nil)

	err := svc.RunEvaluation(ctx, "s1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeEvaluationTimeout))
	subs.AssertExpectations(t)
}

func TestRunEvaluation_GraderFailureMarksError(t *testing.T) {
	ctx := context.Background()
	subs, challenges, client, svc := newEvaluationFixture(time.Second)

	subs.On("Get", ctx, "s1").Return(&models.Submission{ID: "s1", ChallengeID: 7, Status: models.StatusPending}, nil)
	challenges.On("Get", ctx, int64(7)).Return(rubricChallenge(), nil)
	subs.On("BeginEvaluation", ctx, "s1").Return(&models.Submission{ID: "s1", Status: models.StatusEvaluating}, nil)
	client.On("Evaluate", mock.Anything, mock.Anything).Return(nil, assertErr("evaluator returned 400"))
	subs.On("MarkError", ctx, "s1", models.CauseEvaluatorFailure).Return(&models.Submission{ID: "s1", Status: models.StatusError}, nil)

	assert.Error(t, svc.RunEvaluation(ctx, "s1"))
	subs.AssertExpectations(t)
}

func TestRunEvaluation_SkipsNonPending(t *testing.T) {
	ctx := context.Background()
	subs, _, client, svc := newEvaluationFixture(time.Second)

	subs.On("Get", ctx, "s1").Return(&models.Submission{ID: "s1", Status: models.StatusCompleted}, nil)

	require.NoError(t, svc.RunEvaluation(ctx, "s1"))
	client.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestRunEvaluation_LostClaimIsNotAnError(t *testing.T) {
	ctx := context.Background()
	subs, challenges, client, svc := newEvaluationFixture(time.Second)

	subs.On("Get", ctx, "s1").Return(&models.Submission{ID: "s1", ChallengeID: 7, Status: models.StatusPending}, nil)
	challenges.On("Get", ctx, int64(7)).Return(rubricChallenge(), nil)
	subs.On("BeginEvaluation", ctx, "s1").Return(nil, errors.NewInvalidTransitionError("s1", "evaluating", "evaluating"))

	require.NoError(t, svc.RunEvaluation(ctx, "s1"))
	client.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}
