package models

import "time"

type Tier string

const (
	TierFree    Tier = "free"
	TierMonthly Tier = "monthly"
	TierAnnual  Tier = "annual"
)

func (t Tier) Valid() bool {
	return t == TierFree || t == TierMonthly || t == TierAnnual
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue, SubscriptionCanceled, SubscriptionExpired:
		return true
	}
	return false
}

// Subscription mirrors the billing provider's view of a user's plan.
type Subscription struct {
	UserID           string             `json:"user_id"`
	Tier             Tier               `json:"tier"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time         `json:"current_period_end"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
