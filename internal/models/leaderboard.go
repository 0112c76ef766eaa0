package models

import "time"

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	XP            int    `json:"xp"`
	CurrentStreak int    `json:"current_streak"`
	Illustrative  bool   `json:"illustrative"`
}

// Leaderboard is either entirely real or entirely illustrative, never mixed.
type Leaderboard struct {
	Entries      []LeaderboardEntry `json:"entries"`
	Illustrative bool               `json:"illustrative"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

type UserRank struct {
	UserID   string `json:"user_id"`
	Rank     int    `json:"rank"`
	XP       int    `json:"xp"`
	IsPublic bool   `json:"is_public"`
}
