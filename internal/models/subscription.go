package models

import "time"

const (
	// DefaultMonthlyFee is charged per active stock, in dollars.
	DefaultMonthlyFee = 10.0

	// ActivePeriodDays is the paid window granted by an approval.
	ActivePeriodDays = 30
)

// Subscription is a purchasable "stock" access grant. The status enum is
// the single source of truth for the record state: the isActive flag the
// API exposes is derived from it (see IsActive), so status and flag can
// never contradict each other.
type Subscription struct {
	BaseModel
	UserID  string             `gorm:"type:uuid;not null;index"`
	StockID string             `gorm:"uniqueIndex;not null"`
	Status  SubscriptionStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	MonthlyFee   float64 `gorm:"not null;default:10"`
	PaymentProof string

	// Issued by an admin on approval, empty until then.
	APIToken string

	LastActivatedAt *time.Time
	ActiveUntil     *time.Time

	RejectionReason string

	// Back-reference to the subscription this one continues, if any.
	ContinuedFromID *string `gorm:"type:uuid;index"`

	User *User `gorm:"foreignKey:UserID"`
}

// IsActive reports whether the grant is administratively enabled.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsActivelyPaying reports whether the owner counts as currently
// monetized. The window is deliberately loose: a subscription still
// counts for up to 30 days past its nominal activeUntil. The original
// system used this rule for referral bonuses and dashboard figures and
// a strict comparison elsewhere; both predicates are kept, named, and
// pure over (status, activeUntil, now).
func (s *Subscription) IsActivelyPaying(now time.Time) bool {
	if !s.IsActive() || s.ActiveUntil == nil {
		return false
	}
	threshold := now.AddDate(0, 0, -ActivePeriodDays)
	return !s.ActiveUntil.Before(threshold)
}

// IsExpired is the strict counterpart used for display and token
// redaction: past activeUntil means expired, no grace window.
func (s *Subscription) IsExpired(now time.Time) bool {
	return s.ActiveUntil != nil && s.ActiveUntil.Before(now)
}

// WithinActivePeriod reports whether now falls inside the paid window.
func (s *Subscription) WithinActivePeriod(now time.Time) bool {
	if !s.IsActive() || s.ActiveUntil == nil {
		return false
	}
	return !now.After(*s.ActiveUntil)
}
