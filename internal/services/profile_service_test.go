package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/testutil/mocks"
)

func TestEnsure_CreatesOnFirstSightOnly(t *testing.T) {
	ctx := context.Background()
	profiles := new(mocks.MockProfileRepository)
	svc := services.NewProfileService(profiles, new(mocks.MockAchievementRepository), fixedClock)

	existing := &models.Profile{UserID: "u1", Username: "ada"}
	profiles.On("Get", ctx, "u1").Return(existing, nil).Once()

	p, err := svc.Ensure(ctx, "u1", "ada")
	require.NoError(t, err)
	assert.Same(t, existing, p)

	created := &models.Profile{UserID: "u2", Username: "u2", IsPublic: true}
	profiles.On("Get", ctx, "u2").Return(nil, nil).Once()
	profiles.On("Ensure", ctx, "u2", "u2", wednesday).Return(created, nil).Once()

	p, err = svc.Ensure(ctx, "u2", "")
	require.NoError(t, err)
	assert.Equal(t, "u2", p.Username)
	profiles.AssertExpectations(t)
}

func TestSetVisibility_UnknownProfile(t *testing.T) {
	ctx := context.Background()
	profiles := new(mocks.MockProfileRepository)
	svc := services.NewProfileService(profiles, new(mocks.MockAchievementRepository), fixedClock)

	profiles.On("SetVisibility", ctx, "ghost", false).Return(repository.ErrNotFound)

	_, err := svc.SetVisibility(ctx, "ghost", false)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestAchievements_MergesUnlockState(t *testing.T) {
	ctx := context.Background()
	achievements := new(mocks.MockAchievementRepository)
	svc := services.NewProfileService(new(mocks.MockProfileRepository), achievements, fixedClock)

	achievements.On("Catalog", ctx).Return([]models.Achievement{
		{Key: "first_submission", CriteriaType: models.CriteriaCompletedSubmissions, Threshold: 1},
		{Key: "perfectionist", CriteriaType: models.CriteriaPerfectScores, Threshold: 1},
	}, nil)
	achievements.On("ListForUser", ctx, "u1").Return([]models.UserAchievement{
		{UserID: "u1", AchievementKey: "first_submission", SubmissionID: "s1", UnlockedAt: wednesday},
	}, nil)

	list, err := svc.Achievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Unlocked)
	require.NotNil(t, list[0].UnlockedAt)
	assert.Equal(t, wednesday, *list[0].UnlockedAt)
	assert.False(t, list[1].Unlocked)
}
