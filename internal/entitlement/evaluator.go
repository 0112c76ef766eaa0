// Package entitlement decides whether a user may start a new challenge attempt.
//
// Quota weeks are ISO weeks in UTC: they begin Monday 00:00 UTC. Everything in
// this package is a pure function of its inputs; persisting usage is the
// caller's job and must happen in the same transaction as the check.
package entitlement

import (
	"time"

	"github.com/vytor/skillforge/internal/models"
)

// DefaultFreeChallengesPerWeek is used when no quota is configured.
const DefaultFreeChallengesPerWeek = 1

// Denial reasons.
const (
	ReasonQuotaExceeded = "quota_exceeded"
)

// RequestContext is the immutable per-request view of the caller.
type RequestContext struct {
	UserID string
	Tier   models.Tier
	Now    time.Time
}

// Decision is the result of CanStartAttempt.
type Decision struct {
	Allowed   bool        `json:"allowed"`
	Reason    string      `json:"reason,omitempty"`
	Tier      models.Tier `json:"tier"`
	Used      int         `json:"used"`
	Limit     int         `json:"limit"`
	Unlimited bool        `json:"unlimited"`
	ResetsAt  time.Time   `json:"resets_at"`
}

// EffectiveTier maps a billing subscription to the tier whose rules apply at
// now. Anything other than a live paid subscription degrades to free.
func EffectiveTier(sub *models.Subscription, now time.Time) models.Tier {
	if sub == nil {
		return models.TierFree
	}
	if sub.Tier != models.TierMonthly && sub.Tier != models.TierAnnual {
		return models.TierFree
	}
	if sub.Status != models.SubscriptionActive && sub.Status != models.SubscriptionTrialing {
		return models.TierFree
	}
	if sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(now) {
		return models.TierFree
	}
	return sub.Tier
}

// CanStartAttempt evaluates the entitlement rules for one attempt. usage must
// describe the week containing rc.Now. Paid tiers may replay daily challenges
// without limit; the free tier is capped at quota attempts per week regardless
// of the challenge's daily flag.
func CanStartAttempt(rc RequestContext, challenge models.Challenge, usage models.WeeklyUsage, quota int) Decision {
	d := Decision{
		Tier:     rc.Tier,
		Used:     usage.Used,
		Limit:    quota,
		ResetsAt: NextWeekStart(rc.Now),
	}

	switch rc.Tier {
	case models.TierMonthly, models.TierAnnual:
		d.Allowed = true
		d.Unlimited = true
		d.Limit = 0
		return d
	}

	// Usage counted against an older week never carries over.
	if !usage.WeekStart.IsZero() && usage.WeekStart.Before(WeekStart(rc.Now)) {
		d.Used = 0
	}

	if d.Used < quota {
		d.Allowed = true
		return d
	}
	d.Reason = ReasonQuotaExceeded
	return d
}
