package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/skillforge/internal/entitlement"
	"github.com/vytor/skillforge/internal/models"
)

// Wednesday 2026-10-14 10:00 UTC.
var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func usage(used int) models.WeeklyUsage {
	return models.WeeklyUsage{
		Used:      used,
		WeekStart: entitlement.WeekStart(now),
		ResetsAt:  entitlement.NextWeekStart(now),
	}
}

func TestCanStartAttempt_FreeTierWithinQuota(t *testing.T) {
	rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}

	d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1}, usage(0), 1)

	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
	assert.Equal(t, 0, d.Used)
	assert.Equal(t, 1, d.Limit)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), d.ResetsAt)
}

func TestCanStartAttempt_FreeTierQuotaExceeded(t *testing.T) {
	rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}

	d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1}, usage(1), 1)

	assert.False(t, d.Allowed)
	assert.Equal(t, entitlement.ReasonQuotaExceeded, d.Reason)
	assert.Equal(t, 1, d.Used)
	assert.Equal(t, 1, d.Limit)
}

func TestCanStartAttempt_DailyChallengeDoesNotBypassFreeQuota(t *testing.T) {
	rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}

	d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1, IsDaily: true}, usage(1), 1)

	assert.False(t, d.Allowed)
}

func TestCanStartAttempt_PaidTiersUnlimited(t *testing.T) {
	for _, tier := range []models.Tier{models.TierMonthly, models.TierAnnual} {
		t.Run(string(tier), func(t *testing.T) {
			rc := entitlement.RequestContext{UserID: "u1", Tier: tier, Now: now}

			d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1, IsDaily: true}, usage(500), 1)

			assert.True(t, d.Allowed)
			assert.True(t, d.Unlimited)
		})
	}
}

func TestCanStartAttempt_StaleWeekUsageIgnored(t *testing.T) {
	rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}
	stale := models.WeeklyUsage{Used: 1, WeekStart: entitlement.WeekStart(now).AddDate(0, 0, -7)}

	d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1}, stale, 1)

	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Used)
}

func TestCanStartAttempt_ZeroQuotaDeniesFree(t *testing.T) {
	rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}

	d := entitlement.CanStartAttempt(rc, models.Challenge{ID: 1}, usage(0), 0)

	assert.False(t, d.Allowed)
}

// Sequential admissions never exceed the quota within one week.
func TestCanStartAttempt_NeverExceedsQuota(t *testing.T) {
	for quota := 0; quota <= 5; quota++ {
		used := 0
		rc := entitlement.RequestContext{UserID: "u1", Tier: models.TierFree, Now: now}
		for i := 0; i < 20; i++ {
			if entitlement.CanStartAttempt(rc, models.Challenge{ID: 1}, usage(used), quota).Allowed {
				used++
			}
		}
		assert.Equal(t, quota, used)
	}
}

func TestEffectiveTier(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		sub  *models.Subscription
		want models.Tier
	}{
		{"no subscription", nil, models.TierFree},
		{"active monthly", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionActive, CurrentPeriodEnd: &future}, models.TierMonthly},
		{"active annual without period end", &models.Subscription{Tier: models.TierAnnual, Status: models.SubscriptionActive}, models.TierAnnual},
		{"trialing monthly", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionTrialing}, models.TierMonthly},
		{"past due", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionPastDue, CurrentPeriodEnd: &future}, models.TierFree},
		{"canceled", &models.Subscription{Tier: models.TierAnnual, Status: models.SubscriptionCanceled}, models.TierFree},
		{"expired status", &models.Subscription{Tier: models.TierAnnual, Status: models.SubscriptionExpired}, models.TierFree},
		{"period ended", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionActive, CurrentPeriodEnd: &past}, models.TierFree},
		{"free plan", &models.Subscription{Tier: models.TierFree, Status: models.SubscriptionActive}, models.TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entitlement.EffectiveTier(tt.sub, now))
		})
	}
}
