package models

import "time"

// DefaultWithdrawalFee is the flat fee per cash-out, in dollars.
const DefaultWithdrawalFee = 1.0

// Withdrawal is a user request to cash out referral earnings. Once the
// status leaves pending the record is immutable.
type Withdrawal struct {
	BaseModel
	UserID string `gorm:"type:uuid;not null;index"`

	Amount    float64          `gorm:"not null"`
	Fee       float64          `gorm:"not null;default:1"`
	NetAmount float64          `gorm:"not null"`
	Status    WithdrawalStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	// Receipt proof uploaded by the approving admin.
	Receipt   string
	AdminNote string

	ProcessedByID *string `gorm:"type:uuid"`
	ProcessedAt   *time.Time

	User        *User `gorm:"foreignKey:UserID"`
	ProcessedBy *User `gorm:"foreignKey:ProcessedByID"`
}

func (w *Withdrawal) IsProcessed() bool {
	return w.Status != WithdrawalStatusPending
}

// TotalDeduction is what an approval removes from the user balance.
func (w *Withdrawal) TotalDeduction() float64 {
	return w.Amount + w.Fee
}
