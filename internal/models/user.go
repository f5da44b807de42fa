package models

import "time"

type User struct {
	BaseModel
	GoogleID      *string  `gorm:"uniqueIndex"`
	Email         string   `gorm:"uniqueIndex;not null"`
	DisplayName   string   `gorm:"not null"`
	FirstName     string
	LastName      string
	Picture       string
	Role          UserRole `gorm:"type:varchar(20);not null;default:'user'"`
	EmailVerified bool     `gorm:"default:false"`

	// Set only for seeded dev/admin accounts; Google logins carry no password.
	PasswordHash string

	// Referral fields. ReferralCode is generated lazily on first request,
	// ReferralCodeUsed is write-once (a user may redeem one code ever).
	ReferralCode     *string `gorm:"uniqueIndex"`
	ReferralCodeUsed string
	ReferredByID     *string `gorm:"type:uuid;index"`

	WithdrawableBalance float64 `gorm:"not null;default:0"`

	// Payout metadata, free text supplied by the user.
	BankName    string
	BankAccount string
	WhatsApp    string

	LastLogin *time.Time

	Subscriptions []Subscription `gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
