package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// ChallengeService exposes the challenge catalog
type ChallengeService interface {
	List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, error)
	GetBySlug(ctx context.Context, slug string) (*models.Challenge, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Challenge, error)
}

type challengeService struct {
	challengeRepo repository.ChallengeRepository
	now           Clock
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(challengeRepo repository.ChallengeRepository, now Clock) ChallengeService {
	return &challengeService{challengeRepo: challengeRepo, now: clockOr(now)}
}

// List returns challenges open for attempts.
func (s *challengeService) List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, error) {
	filter.ActiveOnly = true
	filter.Now = s.now()

	challenges, err := s.challengeRepo.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("challenges").Error("failed to list challenges: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return challenges, nil
}

// GetBySlug hides unpublished and deactivated challenges.
func (s *challengeService) GetBySlug(ctx context.Context, slug string) (*models.Challenge, error) {
	c, err := s.challengeRepo.GetBySlug(ctx, slug)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("challenges").Error("failed to get challenge: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if c == nil || !c.IsAvailable(s.now()) {
		return nil, errors.NewNotFoundError("challenge", slug)
	}
	return c, nil
}

func (s *challengeService) SetActive(ctx context.Context, id int64, active bool) (*models.Challenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenges")

	if err := s.challengeRepo.SetActive(ctx, id, active); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("challenge", id)
		}
		log.Error("failed to set challenge activation: %v", err)
		return nil, errors.NewInternalError(err)
	}

	c, err := s.challengeRepo.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if c == nil {
		return nil, errors.NewNotFoundError("challenge", id)
	}
	return c, nil
}
