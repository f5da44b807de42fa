package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultProfitPerMonth is the referral bonus, in dollars.
const DefaultProfitPerMonth = 2.5

// Referral is a one-directional edge from referrer to referred user.
// A user may appear as the referred party at most once, enforced by the
// unique index on ReferredUserID.
type Referral struct {
	BaseModel
	ReferrerID     string `gorm:"type:uuid;not null;index;uniqueIndex:idx_referrer_referred"`
	ReferredUserID string `gorm:"type:uuid;not null;uniqueIndex;uniqueIndex:idx_referrer_referred"`
	ReferralCode   string `gorm:"not null"`

	ProfitPerMonth float64 `gorm:"not null;default:2.5"`

	// Per-month earnings history, keyed by "2006-01" month strings:
	// {"2024-02": {"activeReferrals": 1, "earnings": 2.5}}
	MonthlyEarnings datatypes.JSON `gorm:"type:jsonb"`

	// Stamped once, when the referred user's subscription is first
	// approved. The referrer's balance is credited at that same moment.
	FirstActiveDate *time.Time

	Referrer     *User `gorm:"foreignKey:ReferrerID"`
	ReferredUser *User `gorm:"foreignKey:ReferredUserID"`
}

// MonthlyEarning is one entry of the MonthlyEarnings history.
type MonthlyEarning struct {
	ActiveReferrals int     `json:"activeReferrals"`
	Earnings        float64 `json:"earnings"`
}
