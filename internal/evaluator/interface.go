package evaluator

import "context"

// ClientInterface defines the grader operations the service depends on.
type ClientInterface interface {
	Evaluate(ctx context.Context, req Request) ([]byte, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
