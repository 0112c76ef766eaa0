package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// ProfileService handles profile-related business logic
type ProfileService interface {
	Ensure(ctx context.Context, userID, username string) (*models.Profile, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetVisibility(ctx context.Context, userID string, public bool) (*models.Profile, error)
	Achievements(ctx context.Context, userID string) ([]models.AchievementWithStatus, error)
}

type profileService struct {
	profileRepo     repository.ProfileRepository
	achievementRepo repository.AchievementRepository
	now             Clock
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository, achievementRepo repository.AchievementRepository, now Clock) ProfileService {
	return &profileService{profileRepo: profileRepo, achievementRepo: achievementRepo, now: clockOr(now)}
}

// Ensure returns the caller's profile, creating it on first sight and
// following username changes from the identity provider.
func (s *profileService) Ensure(ctx context.Context, userID, username string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profiles")

	if userID == "" {
		return nil, errors.NewValidationError("user_id", "cannot be empty")
	}
	if username == "" {
		username = userID
	}

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if profile != nil && profile.Username == username {
		return profile, nil
	}

	profile, err = s.profileRepo.Ensure(ctx, userID, username, s.now())
	if err != nil {
		log.Error("failed to ensure profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Debug("profile ensured: user_id=%s, username=%s", userID, username)
	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profiles")
	log.Debug("getting profile: user_id=%s", userID)

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("profile", userID)
	}
	return profile, nil
}

func (s *profileService) SetVisibility(ctx context.Context, userID string, public bool) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profiles")

	if err := s.profileRepo.SetVisibility(ctx, userID, public); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("profile", userID)
		}
		log.Error("failed to set visibility: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.GetProfile(ctx, userID)
}

// Achievements lists the whole catalog with the caller's unlock state.
func (s *profileService) Achievements(ctx context.Context, userID string) ([]models.AchievementWithStatus, error) {
	log := logger.FromContext(ctx).WithPrefix("profiles")

	catalog, err := s.achievementRepo.Catalog(ctx)
	if err != nil {
		log.Error("failed to load achievement catalog: %v", err)
		return nil, errors.NewInternalError(err)
	}
	unlocked, err := s.achievementRepo.ListForUser(ctx, userID)
	if err != nil {
		log.Error("failed to load unlocked achievements: %v", err)
		return nil, errors.NewInternalError(err)
	}

	byKey := make(map[string]models.UserAchievement, len(unlocked))
	for _, ua := range unlocked {
		byKey[ua.AchievementKey] = ua
	}

	out := make([]models.AchievementWithStatus, 0, len(catalog))
	for _, a := range catalog {
		status := models.AchievementWithStatus{Achievement: a}
		if ua, ok := byKey[a.Key]; ok {
			at := ua.UnlockedAt
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		out = append(out, status)
	}
	return out, nil
}
