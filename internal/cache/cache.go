// Package cache holds short-lived copies of the public leaderboard.
package cache

import (
	"context"
	"errors"

	"github.com/vytor/skillforge/internal/models"
)

// ErrCacheMiss is returned when no fresh leaderboard is cached for a limit.
var ErrCacheMiss = errors.New("cache: key not found")

// LeaderboardCache stores top-N boards keyed by N. Invalidate drops every size.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) (*models.Leaderboard, error)
	Set(ctx context.Context, limit int, board *models.Leaderboard) error
	Invalidate(ctx context.Context) error
}
