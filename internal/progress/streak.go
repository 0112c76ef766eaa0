// Package progress holds the pure rules applied after a submission completes:
// XP credit, daily streaks, and achievement predicates.
package progress

import (
	"math"
	"time"

	"github.com/vytor/skillforge/internal/models"
)

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ApplyActivity updates the streak fields of p for activity at now and
// returns the updated profile. Activity on the same UTC day leaves the streak
// unchanged; activity on the following day extends it; anything else restarts
// it at 1.
func ApplyActivity(p models.Profile, now time.Time) models.Profile {
	today := Day(now)

	switch {
	case p.LastActivityDate == nil:
		p.CurrentStreak = 1
	case Day(*p.LastActivityDate).Equal(today):
		if p.CurrentStreak == 0 {
			p.CurrentStreak = 1
		}
	case Day(*p.LastActivityDate).AddDate(0, 0, 1).Equal(today):
		p.CurrentStreak++
	case Day(*p.LastActivityDate).After(today):
		// Clock skew between writers; keep the newer date and streak.
		return p
	default:
		p.CurrentStreak = 1
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastActivityDate = &today
	return p
}

// XPForScore returns the XP credited for a completed score. A non-positive
// multiplier counts as 1.
func XPForScore(score int, multiplier float64) int {
	if score <= 0 {
		return 0
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return int(math.Floor(float64(score)*multiplier + 0.5))
}
