package models

import "time"

// Criterion is one weighted dimension of a challenge's grading rubric.
type Criterion struct {
	Name   string `json:"name" yaml:"name"`
	Weight int    `json:"weight" yaml:"weight"`
}

type Challenge struct {
	ID           int64       `json:"id"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	Difficulty   string      `json:"difficulty"`
	Category     string      `json:"category"`
	Points       int         `json:"points"`
	XPMultiplier float64     `json:"xp_multiplier"`
	IsDaily      bool        `json:"is_daily"`
	IsActive     bool        `json:"is_active"`
	PublishedAt  *time.Time  `json:"published_at"`
	Criteria     []Criterion `json:"criteria"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsAvailable reports whether new attempts may target the challenge at now.
func (c Challenge) IsAvailable(now time.Time) bool {
	return c.IsActive && c.PublishedAt != nil && !c.PublishedAt.After(now)
}

// TotalWeight sums the rubric weights.
func (c Challenge) TotalWeight() int {
	total := 0
	for _, cr := range c.Criteria {
		total += cr.Weight
	}
	return total
}

type ChallengeFilter struct {
	Category   string
	Difficulty string
	ActiveOnly bool
	Now        time.Time
}
