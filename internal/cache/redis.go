package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
)

// keyLeaderboardTop is a hash of limit -> serialized board. One key so that
// invalidation is a single DEL and the TTL covers every size together.
const keyLeaderboardTop = "skillforge:leaderboard:top"

// RedisCache shares the leaderboard across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, limit int) (*models.Leaderboard, error) {
	data, err := c.client.HGet(ctx, keyLeaderboardTop, strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var board models.Leaderboard
	if err := json.Unmarshal(data, &board); err != nil {
		logger.FromContext(ctx).WithPrefix("cache").Warn("discarding unreadable leaderboard entry: %v", err)
		return nil, ErrCacheMiss
	}
	return &board, nil
}

func (c *RedisCache) Set(ctx context.Context, limit int, board *models.Leaderboard) error {
	if c.ttl <= 0 || board == nil {
		return nil
	}
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, keyLeaderboardTop, strconv.Itoa(limit), data)
	pipe.Expire(ctx, keyLeaderboardTop, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, keyLeaderboardTop).Err()
}

var _ LeaderboardCache = (*RedisCache)(nil)
