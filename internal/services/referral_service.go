package services

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/models"
	"zaistock_backend/internal/repositories"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const referralCodeAttempts = 10

type ReferralService interface {
	// GetOrCreateCode returns the user's referral code, generating and
	// persisting one on first request.
	GetOrCreateCode(db *gorm.DB, userID string) (string, error)

	// RedeemCode records that userID was referred by the owner of code.
	// One redemption per user, ever.
	RedeemCode(db *gorm.DB, userID string, code string) (*dto.InsertReferralResponse, error)

	GetStats(db *gorm.DB, userID string) (*dto.ReferralStats, error)

	// ListActive returns only the currently monetized referrals with
	// their combined monthly profit.
	ListActive(db *gorm.DB, userID string) (*dto.ActiveReferralsResponse, error)

	// CreditFirstActivation runs the one-shot bonus when a referred
	// user's subscription is first approved. Caller supplies the
	// transaction handle. A nil return with no effect is the normal
	// case for users nobody referred.
	CreditFirstActivation(tx *gorm.DB, referredUserID string, now time.Time) error

	// ActivelyPayingCount counts a user's referred users who currently
	// hold a monetized subscription.
	ActivelyPayingCount(db *gorm.DB, userID string, now time.Time) (int, []dto.ActiveReferral, error)
}

type ReferralServiceImpl struct {
	userRepo     repositories.UserRepository
	referralRepo repositories.ReferralRepository
	subRepo      repositories.SubscriptionRepository
}

func NewReferralService(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	subRepo repositories.SubscriptionRepository,
) ReferralService {
	return &ReferralServiceImpl{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		subRepo:      subRepo,
	}
}

// generateReferralCode builds codes like REF-K3N9X2QA.
func generateReferralCode() (string, error) {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b strings.Builder
	b.WriteString("REF-")
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

func (s *ReferralServiceImpl) GetOrCreateCode(db *gorm.DB, userID string) (string, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return "", apperrors.NewNotFoundError("auth", "User not found")
		}
		return "", apperrors.InternalError(err)
	}

	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", apperrors.InternalError(err)
		}
		if _, err := s.userRepo.FindByReferralCode(db, code); err == nil {
			continue
		} else if !apperrors.Is(err, repositories.ErrUserNotFound) {
			return "", apperrors.InternalError(err)
		}

		user.ReferralCode = &code
		if err := s.userRepo.Update(db, user); err != nil {
			return "", apperrors.InternalError(err)
		}
		return code, nil
	}
	return "", apperrors.InternalError(fmt.Errorf("referral code space exhausted after %d attempts", referralCodeAttempts))
}

func (s *ReferralServiceImpl) RedeemCode(db *gorm.DB, userID string, code string) (*dto.InsertReferralResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.NewBadRequestError("Referral code is required")
	}

	var referrer *models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(tx, userID)
		if err != nil {
			if apperrors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.NewNotFoundError("auth", "User not found")
			}
			return apperrors.InternalError(err)
		}

		if user.ReferralCodeUsed != "" {
			return apperrors.ErrReferralCodeAlreadyUsed
		}
		if user.ReferralCode != nil && *user.ReferralCode == code {
			return apperrors.ErrSelfReferral
		}

		referrer, err = s.userRepo.FindByReferralCode(tx, code)
		if err != nil {
			if apperrors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrReferralCodeNotFound
			}
			return apperrors.InternalError(err)
		}
		if referrer.ID == user.ID {
			return apperrors.ErrSelfReferral
		}

		referral := &models.Referral{
			ReferrerID:     referrer.ID,
			ReferredUserID: user.ID,
			ReferralCode:   code,
			ProfitPerMonth: models.DefaultProfitPerMonth,
		}
		if err := s.referralRepo.Create(tx, referral); err != nil {
			if apperrors.Is(err, repositories.ErrDuplicateEdge) {
				return apperrors.ErrAlreadyReferred
			}
			return apperrors.InternalError(err)
		}

		user.ReferralCodeUsed = code
		user.ReferredByID = &referrer.ID
		if err := s.userRepo.Update(tx, user); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("referral code redeemed", "userId", userID, "referrerId", referrer.ID, "code", code)
	return &dto.InsertReferralResponse{
		Referrer: &dto.OwnerSummary{
			ID:          referrer.ID,
			Email:       referrer.Email,
			DisplayName: referrer.DisplayName,
		},
	}, nil
}

func (s *ReferralServiceImpl) ActivelyPayingCount(db *gorm.DB, userID string, now time.Time) (int, []dto.ActiveReferral, error) {
	referrals, err := s.referralRepo.FindByReferrerID(db, userID)
	if err != nil {
		return 0, nil, apperrors.InternalError(err)
	}

	active := make([]dto.ActiveReferral, 0)
	for i := range referrals {
		ref := &referrals[i]
		paying, err := s.hasPayingSubscription(db, ref.ReferredUserID, now)
		if err != nil {
			return 0, nil, err
		}
		if !paying {
			continue
		}

		entry := dto.ActiveReferral{
			ReferredAt:     ref.CreatedAt,
			ActiveSince:    ref.FirstActiveDate,
			ProfitPerMonth: ref.ProfitPerMonth,
		}
		if ref.ReferredUser != nil {
			entry.User = &dto.OwnerSummary{
				ID:          ref.ReferredUser.ID,
				Email:       ref.ReferredUser.Email,
				DisplayName: ref.ReferredUser.DisplayName,
			}
		}
		active = append(active, entry)
	}
	return len(referrals), active, nil
}

func (s *ReferralServiceImpl) hasPayingSubscription(db *gorm.DB, userID string, now time.Time) (bool, error) {
	subs, err := s.subRepo.FindPayingByUserID(db, userID)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	for i := range subs {
		if subs[i].IsActivelyPaying(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReferralServiceImpl) GetStats(db *gorm.DB, userID string) (*dto.ReferralStats, error) {
	now := time.Now()
	total, active, err := s.ActivelyPayingCount(db, userID, now)
	if err != nil {
		return nil, err
	}

	referrals, err := s.referralRepo.FindByReferrerID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Merge per-referral month histories into one map keyed "2006-01".
	historical := make(map[string]models.MonthlyEarning)
	for i := range referrals {
		if len(referrals[i].MonthlyEarnings) == 0 {
			continue
		}
		var months map[string]models.MonthlyEarning
		if err := json.Unmarshal(referrals[i].MonthlyEarnings, &months); err != nil {
			logger.Warn("skipping unreadable earnings history", "referralId", referrals[i].ID, "error", err)
			continue
		}
		for month, entry := range months {
			agg := historical[month]
			agg.ActiveReferrals += entry.ActiveReferrals
			agg.Earnings += entry.Earnings
			historical[month] = agg
		}
	}

	return &dto.ReferralStats{
		TotalReferrals:       total,
		ActiveReferralsCount: len(active),
		ActiveReferrals:      active,
		CurrentMonthEarnings: float64(len(active)) * models.DefaultProfitPerMonth,
		HistoricalEarnings:   historical,
	}, nil
}

func (s *ReferralServiceImpl) ListActive(db *gorm.DB, userID string) (*dto.ActiveReferralsResponse, error) {
	_, active, err := s.ActivelyPayingCount(db, userID, time.Now())
	if err != nil {
		return nil, err
	}

	total := 0.0
	for i := range active {
		total += active[i].ProfitPerMonth
	}
	return &dto.ActiveReferralsResponse{
		ActiveReferrals: active,
		TotalProfit:     total,
	}, nil
}

// CreditFirstActivation checks whether the newly approved user was
// referred and whether that referral has already paid out. When it has
// not, the referrer's balance is credited once and the edge is stamped
// with the activation month.
func (s *ReferralServiceImpl) CreditFirstActivation(tx *gorm.DB, referredUserID string, now time.Time) error {
	referral, err := s.referralRepo.FindByReferredUserID(tx, referredUserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrReferralNotFound) {
			return nil
		}
		return apperrors.InternalError(err)
	}

	if referral.FirstActiveDate != nil {
		return nil
	}

	bonus := referral.ProfitPerMonth
	if bonus == 0 {
		bonus = models.DefaultProfitPerMonth
	}

	if err := s.userRepo.CreditBalance(tx, referral.ReferrerID, bonus); err != nil {
		return apperrors.InternalError(err)
	}

	month := now.Format("2006-01")
	months := map[string]models.MonthlyEarning{}
	if len(referral.MonthlyEarnings) > 0 {
		if err := json.Unmarshal(referral.MonthlyEarnings, &months); err != nil {
			months = map[string]models.MonthlyEarning{}
		}
	}
	entry := months[month]
	entry.ActiveReferrals++
	entry.Earnings += bonus
	months[month] = entry

	raw, err := json.Marshal(months)
	if err != nil {
		return apperrors.InternalError(err)
	}
	referral.MonthlyEarnings = raw
	referral.FirstActiveDate = &now

	if err := s.referralRepo.Update(tx, referral); err != nil {
		return apperrors.InternalError(err)
	}

	logger.Info("referral bonus credited",
		"referrerId", referral.ReferrerID,
		"referredUserId", referredUserID,
		"amount", bonus)
	return nil
}
