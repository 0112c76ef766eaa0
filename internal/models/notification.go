package models

import "time"

type NotificationKind string

const (
	NotificationSubmissionCompleted NotificationKind = "submission_completed"
	NotificationSubmissionFailed    NotificationKind = "submission_failed"
)

type Notification struct {
	ID           string           `json:"id"`
	Kind         NotificationKind `json:"kind"`
	UserID       string           `json:"user_id"`
	SubmissionID string           `json:"submission_id"`
	ChallengeID  int64            `json:"challenge_id"`
	Score        *int             `json:"score,omitempty"`
	Cause        *string          `json:"cause,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
