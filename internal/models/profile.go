package models

import "time"

type Profile struct {
	UserID           string     `json:"user_id"`
	Username         string     `json:"username"`
	IsPublic         bool       `json:"is_public"`
	XP               int        `json:"xp"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	CreatedAt        time.Time  `json:"created_at"`
}
