package progress

import "github.com/vytor/skillforge/internal/models"

// Satisfied reports whether stats meet the achievement's unlock criteria.
// Unknown criteria types are never satisfied.
func Satisfied(a models.Achievement, stats models.UserStats) bool {
	var value int
	switch a.CriteriaType {
	case models.CriteriaCompletedSubmissions:
		value = stats.CompletedSubmissions
	case models.CriteriaDistinctChallenges:
		value = stats.DistinctChallenges
	case models.CriteriaTotalXP:
		value = stats.XP
	case models.CriteriaStreak:
		value = stats.LongestStreak
		if stats.CurrentStreak > value {
			value = stats.CurrentStreak
		}
	case models.CriteriaPerfectScores:
		value = stats.PerfectScores
	case models.CriteriaHighScore:
		value = stats.BestScore
	default:
		return false
	}
	return value >= a.Threshold
}

// Eligible returns the catalog entries satisfied by stats that are not in
// unlocked. The caller still relies on the storage uniqueness constraint.
func Eligible(catalog []models.Achievement, stats models.UserStats, unlocked map[string]bool) []models.Achievement {
	var out []models.Achievement
	for _, a := range catalog {
		if unlocked[a.Key] {
			continue
		}
		if Satisfied(a, stats) {
			out = append(out, a)
		}
	}
	return out
}
