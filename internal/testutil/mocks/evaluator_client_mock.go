package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skillforge/internal/evaluator"
	"github.com/vytor/skillforge/internal/models"
)

// MockEvaluatorClient is a mock implementation of evaluator.ClientInterface
type MockEvaluatorClient struct {
	mock.Mock
}

func (m *MockEvaluatorClient) Evaluate(ctx context.Context, req evaluator.Request) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
