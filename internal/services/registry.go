package services

import (
	"zaistock_backend/internal/auth"
	"zaistock_backend/internal/email"
	"zaistock_backend/internal/repositories"
	"zaistock_backend/internal/storage"
)

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService         AuthService
	SubscriptionService SubscriptionService
	ReferralService     ReferralService
	WithdrawalService   WithdrawalService
	EmailProvider       email.Provider
	Storage             storage.Storage
}

// NewServiceContainer wires repositories into services.
func NewServiceContainer(
	google *auth.GoogleClient,
	emailProvider email.Provider,
	fileStorage storage.Storage,
) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	subRepo := repositories.NewSubscriptionRepository()
	referralRepo := repositories.NewReferralRepository()
	withdrawalRepo := repositories.NewWithdrawalRepository()

	referralService := NewReferralService(userRepo, referralRepo, subRepo)

	return &ServiceContainer{
		AuthService:         NewAuthService(userRepo, google),
		SubscriptionService: NewSubscriptionService(userRepo, subRepo, referralRepo, referralService, emailProvider),
		ReferralService:     referralService,
		WithdrawalService:   NewWithdrawalService(userRepo, withdrawalRepo, emailProvider),
		EmailProvider:       emailProvider,
		Storage:             fileStorage,
	}
}
