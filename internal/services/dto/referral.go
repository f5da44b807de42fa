package dto

import (
	"time"

	"zaistock_backend/internal/models"
)

type InsertReferralRequest struct {
	ReferralCode string `json:"referralCode" validate:"required"`
}

type InsertReferralResponse struct {
	Referrer *OwnerSummary `json:"referrer"`
}

type ActiveReferral struct {
	User           *OwnerSummary `json:"user"`
	ReferredAt     time.Time     `json:"referredAt"`
	ActiveSince    *time.Time    `json:"activeSince"`
	ProfitPerMonth float64       `json:"profitPerMonth"`
}

type ActiveReferralsResponse struct {
	ActiveReferrals []ActiveReferral `json:"activeReferrals"`
	TotalProfit     float64          `json:"totalProfit"`
}

type ReferralStats struct {
	TotalReferrals       int                              `json:"totalReferrals"`
	ActiveReferralsCount int                              `json:"activeReferralsCount"`
	ActiveReferrals      []ActiveReferral                 `json:"activeReferrals"`
	CurrentMonthEarnings float64                          `json:"currentMonthEarnings"`
	HistoricalEarnings   map[string]models.MonthlyEarning `json:"historicalEarnings"`
}
