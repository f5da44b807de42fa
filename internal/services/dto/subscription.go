package dto

import "time"

type ApproveSubscriptionRequest struct {
	APIToken string `json:"apiToken" validate:"required"`
}

type RejectSubscriptionRequest struct {
	Reason string `json:"reason"`
}

type UpdateTokenRequest struct {
	APIToken string `json:"apiToken" validate:"required"`
}

// OwnSubscription is the owner's view of a stock: the API token is
// redacted unless the grant is active and not expired.
type OwnSubscription struct {
	ID              string     `json:"id"`
	StockID         string     `json:"stockId"`
	Status          string     `json:"status"`
	IsActive        bool       `json:"isActive"`
	IsExpired       bool       `json:"isExpired"`
	ActiveUntil     *time.Time `json:"activeUntil"`
	MonthlyFee      float64    `json:"monthlyFee"`
	APIToken        *string    `json:"apiToken"`
	HasAPIToken     bool       `json:"hasApiToken"`
	PaymentProof    string     `json:"paymentProof"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ContinuedFromID *string    `json:"continuedFrom,omitempty"`
}

// OwnerSummary is the joined owner display block in admin projections.
type OwnerSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type AdminSubscription struct {
	ID               string        `json:"id"`
	User             *OwnerSummary `json:"user"`
	StockID          string        `json:"stockId"`
	Status           string        `json:"status,omitempty"`
	APIToken         string        `json:"apiToken,omitempty"`
	PaymentProof     string        `json:"paymentProof,omitempty"`
	IsActive         bool          `json:"isActive"`
	IsActivelyPaying bool          `json:"isActivelyPaying"`
	ActiveSince      *time.Time    `json:"activeSince,omitempty"`
	ActiveUntil      *time.Time    `json:"activeUntil,omitempty"`
	RequestedAt      time.Time     `json:"requestedAt"`
	ExpiredAt        *time.Time    `json:"expiredAt,omitempty"`
}

type Dashboard struct {
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	ActiveUntil           *time.Time `json:"activeUntil"`
	StockCount            int64      `json:"stockCount"`
	ActiveStocksCount     int        `json:"activeStocksCount"`
	TotalReferrals        int        `json:"totalReferrals"`
	ActiveReferrals       int        `json:"activeReferrals"`
	MonthlyProfit         float64    `json:"monthlyProfit"`
	NetCost               float64    `json:"netCost"`
	WithdrawableBalance   float64    `json:"withdrawableBalance"`
}

// UserStats is the admin per-owner aggregation: fees owed versus
// referral bonus earned.
type UserStats struct {
	ID                   string              `json:"id"`
	Email                string              `json:"email"`
	DisplayName          string              `json:"displayName"`
	Role                 string              `json:"role"`
	ActiveStocks         int                 `json:"activeStocks"`
	StocksFee            float64             `json:"stocksFee"`
	ActiveReferralsCount int                 `json:"activeReferralsCount"`
	ActiveReferrals      []UserStatsReferral `json:"activeReferrals"`
	Bonus                float64             `json:"bonus"`
	NetValue             float64             `json:"netValue"`
}

type UserStatsReferral struct {
	ID             string        `json:"id"`
	User           *OwnerSummary `json:"user"`
	ActiveSince    *time.Time    `json:"activeSince"`
	ProfitPerMonth float64       `json:"profitPerMonth"`
}
