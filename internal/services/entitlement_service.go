package services

import (
	"context"
	"time"

	"github.com/vytor/skillforge/internal/entitlement"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// EntitlementView is the quota state shown to a user before they start an attempt.
type EntitlementView struct {
	entitlement.Decision
	ChallengeID int64     `json:"challenge_id,omitempty"`
	WeekStart   time.Time `json:"week_start"`
}

// EntitlementService resolves tiers from billing state and evaluates quota
type EntitlementService interface {
	RequestContext(ctx context.Context, userID string) (entitlement.RequestContext, error)
	Check(ctx context.Context, userID string, challengeID int64) (*EntitlementView, error)
	RecordSubscription(ctx context.Context, sub models.Subscription) error
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

type entitlementService struct {
	subscriptionRepo repository.SubscriptionRepository
	submissionRepo   repository.SubmissionRepository
	challengeRepo    repository.ChallengeRepository
	quota            int
	now              Clock
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(
	subscriptionRepo repository.SubscriptionRepository,
	submissionRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	quota int,
	now Clock,
) EntitlementService {
	return &entitlementService{
		subscriptionRepo: subscriptionRepo,
		submissionRepo:   submissionRepo,
		challengeRepo:    challengeRepo,
		quota:            quota,
		now:              clockOr(now),
	}
}

func (s *entitlementService) RequestContext(ctx context.Context, userID string) (entitlement.RequestContext, error) {
	log := logger.FromContext(ctx).WithPrefix("entitlement")
	now := s.now()

	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		log.Error("failed to load subscription: %v", err)
		return entitlement.RequestContext{}, errors.NewInternalError(err)
	}

	tier := entitlement.EffectiveTier(sub, now)
	log.Debug("resolved tier: user_id=%s, tier=%s", userID, tier)
	return entitlement.RequestContext{UserID: userID, Tier: tier, Now: now}, nil
}

func (s *entitlementService) Check(ctx context.Context, userID string, challengeID int64) (*EntitlementView, error) {
	log := logger.FromContext(ctx).WithPrefix("entitlement")

	rc, err := s.RequestContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	var challenge models.Challenge
	if challengeID != 0 {
		c, err := s.challengeRepo.Get(ctx, challengeID)
		if err != nil {
			log.Error("failed to get challenge: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if c == nil {
			return nil, errors.NewNotFoundError("challenge", challengeID)
		}
		challenge = *c
	}

	usage, err := s.submissionRepo.WeeklyUsage(ctx, userID, rc.Now)
	if err != nil {
		log.Error("failed to load weekly usage: %v", err)
		return nil, errors.NewInternalError(err)
	}

	decision := entitlement.CanStartAttempt(rc, challenge, usage, s.quota)
	return &EntitlementView{
		Decision:    decision,
		ChallengeID: challengeID,
		WeekStart:   entitlement.WeekStart(rc.Now),
	}, nil
}

// RecordSubscription mirrors a billing event. Events older than the stored
// row are ignored by the store.
func (s *entitlementService) RecordSubscription(ctx context.Context, sub models.Subscription) error {
	log := logger.FromContext(ctx).WithPrefix("entitlement")

	if sub.UserID == "" {
		return errors.NewValidationError("user_id", "cannot be empty")
	}
	if !sub.Tier.Valid() {
		return errors.NewValidationError("tier", "must be free, monthly or annual")
	}
	if !sub.Status.Valid() {
		return errors.NewValidationError("status", "unknown subscription status")
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = s.now()
	}

	if err := s.subscriptionRepo.Upsert(ctx, sub); err != nil {
		log.Error("failed to record subscription: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("subscription recorded: user_id=%s, tier=%s, status=%s", sub.UserID, sub.Tier, sub.Status)
	return nil
}

func (s *entitlementService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("entitlement").Error("failed to load subscription: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("subscription", userID)
	}
	return sub, nil
}
