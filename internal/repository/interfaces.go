package repository

import (
	"context"
	"time"

	"github.com/vytor/skillforge/internal/models"
)

// AdmitFunc decides inside the creation transaction whether an attempt may be
// stored. usage counts the user's quota-bearing attempts this week and active
// is the user's unfinished attempt on the same challenge, if any. A non-nil
// error aborts the transaction and is returned unchanged.
type AdmitFunc func(usage models.WeeklyUsage, active *models.Submission) error

// SubmissionRepository handles submission data access
type SubmissionRepository interface {
	CreateAttempt(ctx context.Context, ns models.NewSubmission, admit AdmitFunc) (*models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int, error)
	WeeklyUsage(ctx context.Context, userID string, now time.Time) (models.WeeklyUsage, error)
	BeginEvaluation(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, score int, breakdown models.ScoreBreakdown, at time.Time) error
	Fail(ctx context.Context, id string, cause string, at time.Time) error
	Abandon(ctx context.Context, id string, cause string, at time.Time) error
	StaleEvaluations(ctx context.Context, startedBefore time.Time, limit int) ([]models.Submission, error)
	StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Submission, error)
}

// ChallengeRepository handles challenge catalog data access
type ChallengeRepository interface {
	Get(ctx context.Context, id int64) (*models.Challenge, error)
	GetBySlug(ctx context.Context, slug string) (*models.Challenge, error)
	List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, error)
	Upsert(ctx context.Context, c models.Challenge) (*models.Challenge, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// ProfileRepository handles profile data access
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Ensure(ctx context.Context, userID, username string, now time.Time) (*models.Profile, error)
	SetVisibility(ctx context.Context, userID string, public bool) error
}

// SubscriptionRepository mirrors billing state
type SubscriptionRepository interface {
	Get(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub models.Subscription) error
}

// AchievementRepository handles the achievement catalog and unlocks
type AchievementRepository interface {
	Catalog(ctx context.Context) ([]models.Achievement, error)
	UpsertCatalog(ctx context.Context, achievements []models.Achievement) error
	ListForUser(ctx context.Context, userID string) ([]models.UserAchievement, error)
}

// RetrySchedule maps the number of failed attempts so far to the time the
// next attempt becomes due.
type RetrySchedule func(attempts int) time.Time

// ProgressRepository applies completed submissions to profiles
type ProgressRepository interface {
	Apply(ctx context.Context, submissionID string, now time.Time) (*models.ProgressOutcome, error)
	RecordFailure(ctx context.Context, submissionID string, cause error, schedule RetrySchedule) (int, error)
	Pending(ctx context.Context, dueBy time.Time, limit int) ([]models.ProgressEvent, error)
	Stats(ctx context.Context, userID string) (*models.UserStats, error)
}

// LeaderboardRepository handles ranking queries over public profiles
type LeaderboardRepository interface {
	CountRanked(ctx context.Context) (int, error)
	Top(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error)
	RankOf(ctx context.Context, userID string) (*models.UserRank, error)
}
