package models

import "time"

// ProgressEvent is the outbox row written when a submission completes. The
// post-processor applies it at most once, keyed by SubmissionID.
type ProgressEvent struct {
	SubmissionID  string     `json:"submission_id"`
	UserID        string     `json:"user_id"`
	Attempts      int        `json:"attempts"`
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AppliedAt     *time.Time `json:"applied_at,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
}

// UserStats are the aggregates achievement predicates are evaluated against.
type UserStats struct {
	CompletedSubmissions int `json:"completed_submissions"`
	DistinctChallenges   int `json:"distinct_challenges"`
	PerfectScores        int `json:"perfect_scores"`
	BestScore            int `json:"best_score"`
	XP                   int `json:"xp"`
	CurrentStreak        int `json:"current_streak"`
	LongestStreak        int `json:"longest_streak"`
}

// ProgressOutcome describes what one post-processing run changed.
type ProgressOutcome struct {
	SubmissionID   string        `json:"submission_id"`
	AlreadyApplied bool          `json:"already_applied"`
	XPAwarded      int           `json:"xp_awarded"`
	CurrentStreak  int           `json:"current_streak"`
	Unlocked       []Achievement `json:"unlocked"`
}
