package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/skillforge/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueEvaluation(submissionID string) error {
	args := m.Called(submissionID)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueNotification(n models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueProgress(submissionID string) error {
	args := m.Called(submissionID)
	return args.Error(0)
}
