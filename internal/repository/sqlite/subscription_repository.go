package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository implementation
func NewSubscriptionRepository(db *sql.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Get(ctx context.Context, userID string) (*models.Subscription, error) {
	log := logger.FromContext(ctx).WithPrefix("subscription_repo")
	log.Debug("getting subscription: user_id=%s", userID)

	var s models.Subscription
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, tier, status, current_period_end, updated_at
FROM subscriptions
WHERE user_id = ?
`, userID).Scan(&s.UserID, &s.Tier, &s.Status, &s.CurrentPeriodEnd, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get subscription: %v", err)
		return nil, err
	}
	s.CurrentPeriodEnd = utcPtr(s.CurrentPeriodEnd)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// Upsert stores the billing provider's view. Events older than the stored row
// are ignored so out-of-order webhooks cannot roll a plan back.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub models.Subscription) error {
	log := logger.FromContext(ctx).WithPrefix("subscription_repo")
	log.Info("upserting subscription: user_id=%s, tier=%s, status=%s", sub.UserID, sub.Tier, sub.Status)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO subscriptions (user_id, tier, status, current_period_end, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    tier = excluded.tier,
    status = excluded.status,
    current_period_end = excluded.current_period_end,
    updated_at = excluded.updated_at
WHERE excluded.updated_at >= subscriptions.updated_at
`, sub.UserID, sub.Tier, sub.Status, utcPtr(sub.CurrentPeriodEnd), sub.UpdatedAt.UTC())
	if err != nil {
		log.Error("failed to upsert subscription: %v", err)
	}
	return err
}
