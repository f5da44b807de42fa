package dto

import (
	"time"

	"zaistock_backend/internal/models"
)

type DevLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePayoutRequest struct {
	BankName    *string `json:"bankName"`
	BankAccount *string `json:"bankAccount"`
	WhatsApp    *string `json:"whatsapp"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	Picture       string     `json:"picture,omitempty"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	IsAdmin       bool       `json:"isAdmin"`
	ReferralCode  string     `json:"referralCode,omitempty"`
	Balance       float64    `json:"withdrawableBalance"`
	BankName      string     `json:"bankName,omitempty"`
	BankAccount   string     `json:"bankAccount,omitempty"`
	WhatsApp      string     `json:"whatsapp,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// CallbackResult is what the OAuth callback produces before the handler
// turns it into a redirect.
type CallbackResult struct {
	Token     string
	User      *models.User
	IsNewUser bool
}

func NewUserResponse(user *models.User) *UserResponse {
	code := ""
	if user.ReferralCode != nil {
		code = *user.ReferralCode
	}
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Picture:       user.Picture,
		Role:          string(user.Role),
		EmailVerified: user.EmailVerified,
		IsAdmin:       user.IsAdmin(),
		ReferralCode:  code,
		Balance:       user.WithdrawableBalance,
		BankName:      user.BankName,
		BankAccount:   user.BankAccount,
		WhatsApp:      user.WhatsApp,
		CreatedAt:     user.CreatedAt,
		LastLogin:     user.LastLogin,
	}
}
