package domain

import "time"

// Subscription tiers known to billing.
const (
	TierFree  = "free"
	TierPro   = "pro"
	TierUltra = "ultra"
)

// CreditProfile tracks a user's remaining AI credit balance.
type CreditProfile struct {
	UserID           string
	Credits          int
	SubscriptionTier string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
