package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Apply(ctx context.Context, submissionID string, now time.Time) (*models.ProgressOutcome, error) {
	args := m.Called(ctx, submissionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressOutcome), args.Error(1)
}

func (m *MockProgressRepository) RecordFailure(ctx context.Context, submissionID string, cause error, schedule repository.RetrySchedule) (int, error) {
	args := m.Called(ctx, submissionID, cause, schedule)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressRepository) Pending(ctx context.Context, dueBy time.Time, limit int) ([]models.ProgressEvent, error) {
	args := m.Called(ctx, dueBy, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProgressEvent), args.Error(1)
}

func (m *MockProgressRepository) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

// MockAchievementRepository is a mock implementation of repository.AchievementRepository
type MockAchievementRepository struct {
	mock.Mock
}

func (m *MockAchievementRepository) Catalog(ctx context.Context) ([]models.Achievement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Achievement), args.Error(1)
}

func (m *MockAchievementRepository) UpsertCatalog(ctx context.Context, achievements []models.Achievement) error {
	args := m.Called(ctx, achievements)
	return args.Error(0)
}

func (m *MockAchievementRepository) ListForUser(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserAchievement), args.Error(1)
}
