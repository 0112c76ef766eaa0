package models

import "time"

// WeeklyUsage is the derived quota state for one user in one ISO week.
type WeeklyUsage struct {
	Used      int       `json:"used"`
	WeekStart time.Time `json:"week_start"`
	ResetsAt  time.Time `json:"resets_at"`
}
