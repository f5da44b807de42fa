package handlers

import (
	"zaistock_backend/internal/services"
	"zaistock_backend/internal/validator"
)

// AppHandlers holds every HTTP handler.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	SubscriptionHandler *SubscriptionHandler
	ReferralHandler     *ReferralHandler
	WithdrawalHandler   *WithdrawalHandler
	FileHandler         *FileHandler
}

func NewAppHandlers(sc *services.ServiceContainer, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		AuthHandler:         NewAuthHandler(base, sc.AuthService),
		SubscriptionHandler: NewSubscriptionHandler(base, sc.SubscriptionService, sc.Storage),
		ReferralHandler:     NewReferralHandler(base, sc.ReferralService),
		WithdrawalHandler:   NewWithdrawalHandler(base, sc.WithdrawalService, sc.Storage),
		FileHandler:         NewFileHandler(base, sc.Storage),
	}
}
