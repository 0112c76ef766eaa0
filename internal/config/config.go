package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                     string
	DBPath                   string
	LogLevel                 string
	LogFormat                string
	CatalogDir               string
	JWTSecret                string
	InternalToken            string
	CORSOrigins              []string
	FreeChallengesPerWeek    int
	MaxPayloadBytes          int
	EvaluatorURL             string
	EvaluationTimeout        time.Duration
	NotifyWebhookURL         string
	RedisAddr                string
	RedisPassword            string
	LeaderboardCacheTTL      time.Duration
	LeaderboardDemoThreshold int
	WorkerCount              int
	QueueSize                int
	SweepInterval            time.Duration
	PendingRedispatchAfter   time.Duration
	PendingTimeout           time.Duration
	ProgressRetryInitial     time.Duration
	ProgressRetryMax         time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	evaluationTimeout := envDurationOr("EVALUATION_TIMEOUT", 2*time.Minute)

	return Config{
		Addr:                     envOr("ADDR", ":8080"),
		DBPath:                   envOr("DB_PATH", "file:skillforge.db"),
		LogLevel:                 envOr("LOG_LEVEL", "INFO"),
		LogFormat:                envOr("LOG_FORMAT", "text"),
		CatalogDir:               envOr("CATALOG_DIR", ""),
		JWTSecret:                envOr("JWT_SECRET", ""),
		InternalToken:            envOr("INTERNAL_TOKEN", ""),
		CORSOrigins:              envListOr("CORS_ORIGINS", []string{"*"}),
		FreeChallengesPerWeek:    envIntOr("FREE_CHALLENGES_PER_WEEK", 1),
		MaxPayloadBytes:          envIntOr("MAX_PAYLOAD_BYTES", 256*1024),
		EvaluatorURL:             envOr("EVALUATOR_URL", ""),
		EvaluationTimeout:        evaluationTimeout,
		NotifyWebhookURL:         envOr("NOTIFY_WEBHOOK_URL", ""),
		RedisAddr:                envOr("REDIS_ADDR", ""),
		RedisPassword:            envOr("REDIS_PASSWORD", ""),
		LeaderboardCacheTTL:      envDurationOr("LEADERBOARD_CACHE_TTL", 30*time.Second),
		LeaderboardDemoThreshold: envIntOr("LEADERBOARD_DEMO_THRESHOLD", 10),
		WorkerCount:              envIntOr("WORKER_COUNT", 4),
		QueueSize:                envIntOr("QUEUE_SIZE", 128),
		SweepInterval:            envDurationOr("SWEEP_INTERVAL", 30*time.Second),
		PendingRedispatchAfter:   envDurationOr("PENDING_REDISPATCH_AFTER", time.Minute),
		PendingTimeout:           envDurationOr("PENDING_TIMEOUT", 3*evaluationTimeout),
		ProgressRetryInitial:     envDurationOr("PROGRESS_RETRY_INITIAL", 30*time.Second),
		ProgressRetryMax:         envDurationOr("PROGRESS_RETRY_MAX", 30*time.Minute),
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.InternalToken == "" {
		return fmt.Errorf("INTERNAL_TOKEN cannot be empty")
	}
	if c.FreeChallengesPerWeek < 0 {
		return fmt.Errorf("FREE_CHALLENGES_PER_WEEK must be >= 0, got %d", c.FreeChallengesPerWeek)
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("MAX_PAYLOAD_BYTES must be > 0, got %d", c.MaxPayloadBytes)
	}
	if c.EvaluationTimeout <= 0 {
		return fmt.Errorf("EVALUATION_TIMEOUT must be positive, got %s", c.EvaluationTimeout)
	}
	if c.LeaderboardDemoThreshold < 0 {
		return fmt.Errorf("LEADERBOARD_DEMO_THRESHOLD must be >= 0, got %d", c.LeaderboardDemoThreshold)
	}
	if c.WorkerCount < 1 || c.WorkerCount > 64 {
		return fmt.Errorf("WORKER_COUNT must be between 1 and 64, got %d", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be >= 1, got %d", c.QueueSize)
	}
	if c.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s, got %s", c.SweepInterval)
	}
	if c.PendingRedispatchAfter < time.Second {
		return fmt.Errorf("PENDING_REDISPATCH_AFTER must be at least 1s, got %s", c.PendingRedispatchAfter)
	}
	if c.PendingTimeout < c.PendingRedispatchAfter || c.PendingTimeout < c.EvaluationTimeout {
		return fmt.Errorf("PENDING_TIMEOUT must be at least PENDING_REDISPATCH_AFTER and EVALUATION_TIMEOUT, got %s", c.PendingTimeout)
	}
	if c.ProgressRetryInitial <= 0 || c.ProgressRetryMax < c.ProgressRetryInitial {
		return fmt.Errorf("PROGRESS_RETRY_INITIAL must be positive and at most PROGRESS_RETRY_MAX, got %s/%s", c.ProgressRetryInitial, c.ProgressRetryMax)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
