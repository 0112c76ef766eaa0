package models

import (
	"encoding/json"
	"time"
)

type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusEvaluating SubmissionStatus = "evaluating"
	StatusCompleted  SubmissionStatus = "completed"
	StatusError      SubmissionStatus = "error"
)

// IsTerminal reports whether no further transitions may leave s.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusEvaluating, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Error causes recorded on submissions that end in StatusError.
const (
	CauseEvaluationTimeout  = "evaluation_timeout"
	CauseMalformedBreakdown = "malformed_breakdown"
	CauseEvaluatorFailure   = "evaluator_failure"
)

type Submission struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"user_id"`
	ChallengeID         int64            `json:"challenge_id"`
	Status              SubmissionStatus `json:"status"`
	AttemptNumber       int              `json:"attempt_number"`
	Payload             json.RawMessage  `json:"payload,omitempty"`
	Score               *int             `json:"score"`
	ScoreBreakdown      ScoreBreakdown   `json:"score_breakdown,omitempty"`
	TimeTakenSeconds    *int             `json:"time_taken_seconds"`
	ErrorCause          *string          `json:"error_cause,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	EvaluationStartedAt *time.Time       `json:"evaluation_started_at,omitempty"`
	EvaluatedAt         *time.Time       `json:"evaluated_at"`
}

type SubmissionFilter struct {
	UserID      string
	ChallengeID int64
	Status      SubmissionStatus
	Limit       int
	Offset      int
}

// NewSubmission carries the fields a caller chooses when creating an attempt;
// the store assigns attempt number and status.
type NewSubmission struct {
	ID               string
	UserID           string
	ChallengeID      int64
	Payload          json.RawMessage
	TimeTakenSeconds *int
	CreatedAt        time.Time
}
