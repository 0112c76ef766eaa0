package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The pool is pinned to one connection so every query sees the same
// in-memory database, mirroring the single-writer production setup.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on&_txlock=immediate")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedProfile inserts a profile row directly.
func SeedProfile(t *testing.T, sqlDB *sql.DB, userID string, xp int, public bool, createdAt time.Time) {
	_, err := sqlDB.Exec(`INSERT INTO profiles (user_id, username, is_public, xp, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, userID, public, xp, createdAt.UTC())
	require.NoError(t, err)
}

// SeedChallenge inserts a published, active challenge with a single criterion
// weighted 100 and returns its id.
func SeedChallenge(t *testing.T, sqlDB *sql.DB, slug string, multiplier float64, publishedAt time.Time) int64 {
	res, err := sqlDB.Exec(`
INSERT INTO challenges (slug, title, difficulty, category, points, xp_multiplier, is_daily, is_active, published_at, criteria, created_at)
VALUES (?, ?, 'beginner', 'workflows', 100, ?, 0, 1, ?, '[{"name":"correctness","weight":100}]', ?)
`, slug, slug, multiplier, publishedAt.UTC(), publishedAt.UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
