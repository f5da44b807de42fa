package services

import (
	"context"
	"time"

	"zaistock_backend/internal/auth"
	"zaistock_backend/internal/config"
	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/models"
	"zaistock_backend/internal/repositories"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	// GoogleAuthURL builds the vendor authorization URL for the login
	// redirect.
	GoogleAuthURL(state string) string

	// CompleteGoogleLogin exchanges the authorization code, finds or
	// creates the local user, and issues a session token.
	CompleteGoogleLogin(ctx context.Context, db *gorm.DB, code string) (*dto.CallbackResult, error)

	// DevLogin authenticates a seeded password account. Only wired up
	// outside production.
	DevLogin(db *gorm.DB, req *dto.DevLoginRequest) (*dto.LoginResponse, error)

	GetUser(db *gorm.DB, userID string) (*dto.UserResponse, error)
	ListUsers(db *gorm.DB) ([]dto.UserResponse, error)
	UpdateRole(db *gorm.DB, actorID, targetID string, role models.UserRole) (*dto.UserResponse, error)
	ToggleRole(db *gorm.DB, actorID, targetID string) (*dto.UserResponse, error)
	UpdatePayoutDetails(db *gorm.DB, userID string, req *dto.UpdatePayoutRequest) (*dto.UserResponse, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	google   *auth.GoogleClient
}

func NewAuthService(userRepo repositories.UserRepository, google *auth.GoogleClient) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		google:   google,
	}
}

func (s *AuthServiceImpl) GoogleAuthURL(state string) string {
	return s.google.AuthURL(state)
}

func (s *AuthServiceImpl) CompleteGoogleLogin(ctx context.Context, db *gorm.DB, code string) (*dto.CallbackResult, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.ErrOAuthExchange(err)
	}

	user, isNew, err := s.findOrCreateGoogleUser(db, profile)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.CallbackResult{Token: token, User: user, IsNewUser: isNew}, nil
}

// findOrCreateGoogleUser resolves the Google profile to a local account:
// match by Google id first, then link an existing email account, then
// create. Every login refreshes the profile fields and last-login stamp.
func (s *AuthServiceImpl) findOrCreateGoogleUser(db *gorm.DB, profile *auth.GoogleProfile) (*models.User, bool, error) {
	now := time.Now()

	user, err := s.userRepo.FindByGoogleID(db, profile.ID)
	if err == nil {
		s.refreshProfile(user, profile, now)
		if err := s.userRepo.Update(db, user); err != nil {
			return nil, false, apperrors.InternalError(err)
		}
		return user, false, nil
	}
	if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, apperrors.InternalError(err)
	}

	// A seeded or previously created account with the same email gets
	// linked rather than duplicated.
	user, err = s.userRepo.FindByEmail(db, profile.Email)
	if err == nil {
		googleID := profile.ID
		user.GoogleID = &googleID
		s.refreshProfile(user, profile, now)
		if err := s.userRepo.Update(db, user); err != nil {
			return nil, false, apperrors.InternalError(err)
		}
		logger.Info("linked google identity to existing account", "userId", user.ID, "email", user.Email)
		return user, false, nil
	}
	if !apperrors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, apperrors.InternalError(err)
	}

	googleID := profile.ID
	role := models.UserRoleUser
	if config.GetConfig().IsAdminEmail(profile.Email) {
		role = models.UserRoleAdmin
	}
	user = &models.User{
		GoogleID:      &googleID,
		Email:         profile.Email,
		DisplayName:   displayNameFor(profile),
		FirstName:     profile.GivenName,
		LastName:      profile.FamilyName,
		Picture:       profile.Picture,
		Role:          role,
		EmailVerified: profile.VerifiedEmail,
		LastLogin:     &now,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		return nil, false, apperrors.InternalError(err)
	}
	logger.Info("created user from google login", "userId", user.ID, "email", user.Email, "role", role)
	return user, true, nil
}

func (s *AuthServiceImpl) refreshProfile(user *models.User, profile *auth.GoogleProfile, now time.Time) {
	user.DisplayName = displayNameFor(profile)
	user.FirstName = profile.GivenName
	user.LastName = profile.FamilyName
	user.Picture = profile.Picture
	user.EmailVerified = profile.VerifiedEmail
	user.LastLogin = &now

	// The allow-list can promote an existing user, never demote one.
	if user.Role != models.UserRoleAdmin && config.GetConfig().IsAdminEmail(user.Email) {
		user.Role = models.UserRoleAdmin
	}
}

func displayNameFor(profile *auth.GoogleProfile) string {
	if profile.Name != "" {
		return profile.Name
	}
	return profile.Email
}

func (s *AuthServiceImpl) DevLogin(db *gorm.DB, req *dto.DevLoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if user.PasswordHash == "" || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *AuthServiceImpl) GetUser(db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) ListUsers(db *gorm.DB) ([]dto.UserResponse, error) {
	users, err := s.userRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *dto.NewUserResponse(&users[i]))
	}
	return out, nil
}

func (s *AuthServiceImpl) UpdateRole(db *gorm.DB, actorID, targetID string, role models.UserRole) (*dto.UserResponse, error) {
	if actorID == targetID {
		return nil, apperrors.ErrCannotModifySelf
	}

	user, err := s.userRepo.FindByID(db, targetID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	user.Role = role
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.Info("user role changed", "userId", user.ID, "role", role, "changedBy", actorID)
	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) ToggleRole(db *gorm.DB, actorID, targetID string) (*dto.UserResponse, error) {
	if actorID == targetID {
		return nil, apperrors.ErrCannotModifySelf
	}

	user, err := s.userRepo.FindByID(db, targetID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if user.Role == models.UserRoleAdmin {
		user.Role = models.UserRoleUser
	} else {
		user.Role = models.UserRoleAdmin
	}
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.Info("user role toggled", "userId", user.ID, "role", user.Role, "changedBy", actorID)
	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) UpdatePayoutDetails(db *gorm.DB, userID string, req *dto.UpdatePayoutRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if req.BankName != nil {
		user.BankName = *req.BankName
	}
	if req.BankAccount != nil {
		user.BankAccount = *req.BankAccount
	}
	if req.WhatsApp != nil {
		user.WhatsApp = *req.WhatsApp
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewUserResponse(user), nil
}
