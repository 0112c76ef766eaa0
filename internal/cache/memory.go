package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vytor/skillforge/internal/models"
)

type memoryEntry struct {
	board     models.Leaderboard
	expiresAt time.Time
}

// MemoryCache is an in-process LeaderboardCache for single-instance deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: map[int]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, limit int) (*models.Leaderboard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[limit]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, ErrCacheMiss
	}
	board := e.board
	board.Entries = append([]models.LeaderboardEntry(nil), e.board.Entries...)
	return &board, nil
}

func (c *MemoryCache) Set(_ context.Context, limit int, board *models.Leaderboard) error {
	if c.ttl <= 0 || board == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *board
	copied.Entries = append([]models.LeaderboardEntry(nil), board.Entries...)
	c.entries[limit] = memoryEntry{board: copied, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[int]memoryEntry{}
	return nil
}

var _ LeaderboardCache = (*MemoryCache)(nil)
