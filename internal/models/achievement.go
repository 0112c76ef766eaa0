package models

import "time"

type AchievementCriteria string

const (
	CriteriaCompletedSubmissions AchievementCriteria = "completed_submissions"
	CriteriaDistinctChallenges   AchievementCriteria = "distinct_challenges"
	CriteriaTotalXP              AchievementCriteria = "total_xp"
	CriteriaStreak               AchievementCriteria = "streak"
	CriteriaPerfectScores        AchievementCriteria = "perfect_scores"
	CriteriaHighScore            AchievementCriteria = "high_score"
)

type Achievement struct {
	Key          string              `json:"key" yaml:"key"`
	Name         string              `json:"name" yaml:"name"`
	Description  string              `json:"description" yaml:"description"`
	Icon         string              `json:"icon" yaml:"icon"`
	CriteriaType AchievementCriteria `json:"criteria_type" yaml:"criteria_type"`
	Threshold    int                 `json:"threshold" yaml:"threshold"`
	XPReward     int                 `json:"xp_reward" yaml:"xp_reward"`
}

type UserAchievement struct {
	UserID         string    `json:"user_id"`
	AchievementKey string    `json:"achievement_key"`
	SubmissionID   string    `json:"submission_id"`
	UnlockedAt     time.Time `json:"unlocked_at"`
}

type AchievementWithStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}
