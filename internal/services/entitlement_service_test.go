package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/testutil/mocks"
)

func newEntitlementFixture() (*mocks.MockSubscriptionRepository, *mocks.MockSubmissionRepository, *mocks.MockChallengeRepository, services.EntitlementService) {
	subsRepo := new(mocks.MockSubscriptionRepository)
	submissions := new(mocks.MockSubmissionRepository)
	challenges := new(mocks.MockChallengeRepository)
	return subsRepo, submissions, challenges, services.NewEntitlementService(subsRepo, submissions, challenges, 1, fixedClock)
}

func TestRequestContext_EffectiveTier(t *testing.T) {
	ctx := context.Background()
	lapsed := wednesday.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *models.Subscription
		want models.Tier
	}{
		{"no subscription", nil, models.TierFree},
		{"active monthly", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionActive}, models.TierMonthly},
		{"trialing annual", &models.Subscription{Tier: models.TierAnnual, Status: models.SubscriptionTrialing}, models.TierAnnual},
		{"past due", &models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionPastDue}, models.TierFree},
		{"period ended", &models.Subscription{Tier: models.TierAnnual, Status: models.SubscriptionActive, CurrentPeriodEnd: &lapsed}, models.TierFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subsRepo, _, _, svc := newEntitlementFixture()
			if tt.sub == nil {
				subsRepo.On("Get", ctx, "u1").Return(nil, nil)
			} else {
				subsRepo.On("Get", ctx, "u1").Return(tt.sub, nil)
			}

			rc, err := svc.RequestContext(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.Tier)
			assert.Equal(t, wednesday, rc.Now)
		})
	}
}

func TestCheck_ReportsQuota(t *testing.T) {
	ctx := context.Background()
	subsRepo, submissions, challenges, svc := newEntitlementFixture()

	subsRepo.On("Get", ctx, "u1").Return(nil, nil)
	challenges.On("Get", ctx, int64(7)).Return(rubricChallenge(), nil)
	submissions.On("WeeklyUsage", ctx, "u1", wednesday).Return(usage(1), nil)

	view, err := svc.Check(ctx, "u1", 7)
	require.NoError(t, err)
	assert.False(t, view.Allowed)
	assert.Equal(t, "quota_exceeded", view.Reason)
	assert.Equal(t, 1, view.Used)
	assert.Equal(t, 1, view.Limit)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), view.WeekStart)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), view.ResetsAt)
}

func TestCheck_UnknownChallenge(t *testing.T) {
	ctx := context.Background()
	subsRepo, _, challenges, svc := newEntitlementFixture()

	subsRepo.On("Get", ctx, "u1").Return(nil, nil)
	challenges.On("Get", ctx, int64(99)).Return(nil, nil)

	_, err := svc.Check(ctx, "u1", 99)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestRecordSubscription(t *testing.T) {
	ctx := context.Background()
	subsRepo, _, _, svc := newEntitlementFixture()

	assert.True(t, errors.HasCode(svc.RecordSubscription(ctx, models.Subscription{Tier: models.TierMonthly, Status: models.SubscriptionActive}), errors.ErrCodeValidation))
	assert.True(t, errors.HasCode(svc.RecordSubscription(ctx, models.Subscription{UserID: "u1", Tier: "platinum", Status: models.SubscriptionActive}), errors.ErrCodeValidation))
	assert.True(t, errors.HasCode(svc.RecordSubscription(ctx, models.Subscription{UserID: "u1", Tier: models.TierMonthly, Status: "paused"}), errors.ErrCodeValidation))

	subsRepo.On("Upsert", ctx, mock.MatchedBy(func(s models.Subscription) bool {
		return s.UserID == "u1" && s.UpdatedAt.Equal(wednesday)
	})).Return(nil)
	require.NoError(t, svc.RecordSubscription(ctx, models.Subscription{UserID: "u1", Tier: models.TierMonthly, Status: models.SubscriptionActive}))
	subsRepo.AssertExpectations(t)
}
