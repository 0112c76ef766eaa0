package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// MockSubmissionRepository is a mock implementation of repository.SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

// CreateAttempt returns (usage, active, created, err) from the expectation.
// The admit callback runs against usage and active first, as the real store
// does inside its transaction, and its error wins.
func (m *MockSubmissionRepository) CreateAttempt(ctx context.Context, ns models.NewSubmission, admit repository.AdmitFunc) (*models.Submission, error) {
	args := m.Called(ctx, ns)

	usage, _ := args.Get(0).(models.WeeklyUsage)
	active, _ := args.Get(1).(*models.Submission)
	if err := admit(usage, active); err != nil {
		return nil, err
	}
	if args.Get(2) == nil {
		return nil, args.Error(3)
	}
	return args.Get(2).(*models.Submission), args.Error(3)
}

func (m *MockSubmissionRepository) Get(ctx context.Context, id string) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockSubmissionRepository) WeeklyUsage(ctx context.Context, userID string, now time.Time) (models.WeeklyUsage, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(models.WeeklyUsage), args.Error(1)
}

func (m *MockSubmissionRepository) BeginEvaluation(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Complete(ctx context.Context, id string, score int, breakdown models.ScoreBreakdown, at time.Time) error {
	args := m.Called(ctx, id, score, breakdown, at)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Fail(ctx context.Context, id string, cause string, at time.Time) error {
	args := m.Called(ctx, id, cause, at)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Abandon(ctx context.Context, id string, cause string, at time.Time) error {
	args := m.Called(ctx, id, cause, at)
	return args.Error(0)
}

func (m *MockSubmissionRepository) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Submission, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) StaleEvaluations(ctx context.Context, startedBefore time.Time, limit int) ([]models.Submission, error) {
	args := m.Called(ctx, startedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}
