package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"zaistock_backend/internal/email"
	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/models"
	"zaistock_backend/internal/repositories"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const stockIDAttempts = 10

type SubscriptionService interface {
	// Request creates a pending subscription for the user. The payment
	// proof has already been stored; proofPath is its storage key.
	Request(db *gorm.DB, userID, proofPath string, continuedFromID *string) (*dto.OwnSubscription, error)

	ListOwn(db *gorm.DB, userID string) ([]dto.OwnSubscription, error)
	Dashboard(db *gorm.DB, userID string) (*dto.Dashboard, error)

	// Admin projections.
	ListPending(db *gorm.DB) ([]dto.AdminSubscription, error)
	ListActive(db *gorm.DB) ([]dto.AdminSubscription, error)
	ListProcessed(db *gorm.DB) ([]dto.AdminSubscription, error)
	ListExpired(db *gorm.DB) ([]dto.AdminSubscription, error)
	UserStats(db *gorm.DB) ([]dto.UserStats, error)

	// Admin mutations.
	Approve(db *gorm.DB, subscriptionID, apiToken string) (*dto.AdminSubscription, error)
	Reject(db *gorm.DB, subscriptionID, reason string) (*dto.AdminSubscription, error)
	Toggle(db *gorm.DB, subscriptionID string) (*dto.AdminSubscription, error)
	SetToken(db *gorm.DB, subscriptionID, apiToken string) (*dto.AdminSubscription, error)
	MarkExpired(db *gorm.DB, subscriptionID string) (*dto.AdminSubscription, error)
}

type SubscriptionServiceImpl struct {
	userRepo        repositories.UserRepository
	subRepo         repositories.SubscriptionRepository
	referralRepo    repositories.ReferralRepository
	referralService ReferralService
	emailProvider   email.Provider
}

func NewSubscriptionService(
	userRepo repositories.UserRepository,
	subRepo repositories.SubscriptionRepository,
	referralRepo repositories.ReferralRepository,
	referralService ReferralService,
	emailProvider email.Provider,
) SubscriptionService {
	return &SubscriptionServiceImpl{
		userRepo:        userRepo,
		subRepo:         subRepo,
		referralRepo:    referralRepo,
		referralService: referralService,
		emailProvider:   emailProvider,
	}
}

// generateStockID builds ids like STOCK-LX2F91A-4K7QZ2: a base-36
// timestamp plus six random base-36 characters.
func generateStockID() (string, error) {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	var suffix strings.Builder
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		suffix.WriteByte(alphabet[n.Int64()])
	}
	return fmt.Sprintf("STOCK-%s-%s", ts, suffix.String()), nil
}

func (s *SubscriptionServiceImpl) uniqueStockID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < stockIDAttempts; attempt++ {
		id, err := generateStockID()
		if err != nil {
			return "", apperrors.InternalError(err)
		}
		exists, err := s.subRepo.StockIDExists(db, id)
		if err != nil {
			return "", apperrors.InternalError(err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", apperrors.ErrStockIDExhausted
}

func (s *SubscriptionServiceImpl) Request(db *gorm.DB, userID, proofPath string, continuedFromID *string) (*dto.OwnSubscription, error) {
	if proofPath == "" {
		return nil, apperrors.ErrPaymentProofRequired
	}

	stockID, err := s.uniqueStockID(db)
	if err != nil {
		return nil, err
	}

	if continuedFromID != nil {
		if _, err := s.subRepo.FindByID(db, *continuedFromID); err != nil {
			if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
				return nil, apperrors.ErrSubscriptionNotFound
			}
			return nil, apperrors.InternalError(err)
		}
	}

	sub := &models.Subscription{
		UserID:          userID,
		StockID:         stockID,
		Status:          models.SubscriptionStatusPending,
		MonthlyFee:      models.DefaultMonthlyFee,
		PaymentProof:    proofPath,
		ContinuedFromID: continuedFromID,
	}
	if err := s.subRepo.Create(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("subscription requested", "userId", userID, "stockId", stockID)
	return s.toOwnSubscription(sub, time.Now()), nil
}

// toOwnSubscription redacts the API token unless the grant is active and
// inside its paid window.
func (s *SubscriptionServiceImpl) toOwnSubscription(sub *models.Subscription, now time.Time) *dto.OwnSubscription {
	out := &dto.OwnSubscription{
		ID:              sub.ID,
		StockID:         sub.StockID,
		Status:          string(sub.Status),
		IsActive:        sub.IsActive(),
		IsExpired:       sub.IsExpired(now),
		ActiveUntil:     sub.ActiveUntil,
		MonthlyFee:      sub.MonthlyFee,
		HasAPIToken:     sub.APIToken != "",
		PaymentProof:    sub.PaymentProof,
		RejectionReason: sub.RejectionReason,
		ContinuedFromID: sub.ContinuedFromID,
	}
	if sub.IsActive() && !sub.IsExpired(now) && sub.APIToken != "" {
		token := sub.APIToken
		out.APIToken = &token
	}
	return out
}

func (s *SubscriptionServiceImpl) ListOwn(db *gorm.DB, userID string) ([]dto.OwnSubscription, error) {
	subs, err := s.subRepo.FindByUserID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := time.Now()
	out := make([]dto.OwnSubscription, 0, len(subs))
	for i := range subs {
		out = append(out, *s.toOwnSubscription(&subs[i], now))
	}
	return out, nil
}

func (s *SubscriptionServiceImpl) Dashboard(db *gorm.DB, userID string) (*dto.Dashboard, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	now := time.Now()

	stockCount, err := s.subRepo.CountByUserID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	activeSubs, err := s.subRepo.FindPayingByUserID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	payingStocks := 0
	var activeUntil *time.Time
	for i := range activeSubs {
		if activeSubs[i].IsActivelyPaying(now) {
			payingStocks++
		}
		if activeSubs[i].ActiveUntil != nil &&
			(activeUntil == nil || activeSubs[i].ActiveUntil.After(*activeUntil)) {
			activeUntil = activeSubs[i].ActiveUntil
		}
	}

	totalReferrals, activeReferrals, err := s.referralService.ActivelyPayingCount(db, userID, now)
	if err != nil {
		return nil, err
	}

	monthlyProfit := float64(len(activeReferrals)) * models.DefaultProfitPerMonth
	netCost := float64(payingStocks)*models.DefaultMonthlyFee - monthlyProfit

	return &dto.Dashboard{
		HasActiveSubscription: len(activeSubs) > 0,
		ActiveUntil:           activeUntil,
		StockCount:            stockCount,
		ActiveStocksCount:     payingStocks,
		TotalReferrals:        totalReferrals,
		ActiveReferrals:       len(activeReferrals),
		MonthlyProfit:         monthlyProfit,
		NetCost:               netCost,
		WithdrawableBalance:   user.WithdrawableBalance,
	}, nil
}

func (s *SubscriptionServiceImpl) toAdminSubscription(sub *models.Subscription, now time.Time) *dto.AdminSubscription {
	out := &dto.AdminSubscription{
		ID:               sub.ID,
		StockID:          sub.StockID,
		Status:           string(sub.Status),
		APIToken:         sub.APIToken,
		PaymentProof:     sub.PaymentProof,
		IsActive:         sub.IsActive(),
		IsActivelyPaying: sub.IsActivelyPaying(now),
		ActiveSince:      sub.LastActivatedAt,
		ActiveUntil:      sub.ActiveUntil,
		RequestedAt:      sub.CreatedAt,
	}
	if sub.Status == models.SubscriptionStatusExpired {
		out.ExpiredAt = sub.ActiveUntil
	}
	if sub.User != nil {
		out.User = &dto.OwnerSummary{
			ID:          sub.User.ID,
			Email:       sub.User.Email,
			DisplayName: sub.User.DisplayName,
		}
	}
	return out
}

func (s *SubscriptionServiceImpl) adminList(subs []models.Subscription) []dto.AdminSubscription {
	now := time.Now()
	out := make([]dto.AdminSubscription, 0, len(subs))
	for i := range subs {
		out = append(out, *s.toAdminSubscription(&subs[i], now))
	}
	return out
}

func (s *SubscriptionServiceImpl) ListPending(db *gorm.DB) ([]dto.AdminSubscription, error) {
	subs, err := s.subRepo.FindByStatus(db, models.SubscriptionStatusPending, "created_at asc")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.adminList(subs), nil
}

func (s *SubscriptionServiceImpl) ListActive(db *gorm.DB) ([]dto.AdminSubscription, error) {
	subs, err := s.subRepo.FindByStatus(db, models.SubscriptionStatusActive, "active_until desc")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.adminList(subs), nil
}

// ListProcessed returns every subscription an admin has acted on.
func (s *SubscriptionServiceImpl) ListProcessed(db *gorm.DB) ([]dto.AdminSubscription, error) {
	subs, err := s.subRepo.FindByStatuses(db, []models.SubscriptionStatus{
		models.SubscriptionStatusActive,
		models.SubscriptionStatusCancelled,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.adminList(subs), nil
}

func (s *SubscriptionServiceImpl) ListExpired(db *gorm.DB) ([]dto.AdminSubscription, error) {
	subs, err := s.subRepo.FindByStatus(db, models.SubscriptionStatusExpired, "active_until desc")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.adminList(subs), nil
}

func (s *SubscriptionServiceImpl) UserStats(db *gorm.DB) ([]dto.UserStats, error) {
	ownerIDs, err := s.subRepo.DistinctOwnerIDs(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if len(ownerIDs) == 0 {
		return []dto.UserStats{}, nil
	}

	owners, err := s.userRepo.FindByIDs(db, ownerIDs)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := time.Now()
	out := make([]dto.UserStats, 0, len(owners))
	for i := range owners {
		owner := &owners[i]

		subs, err := s.subRepo.FindPayingByUserID(db, owner.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		payingStocks := 0
		for j := range subs {
			if subs[j].IsActivelyPaying(now) {
				payingStocks++
			}
		}

		referrals, err := s.referralRepo.FindByReferrerID(db, owner.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		activeRefs := make([]dto.UserStatsReferral, 0)
		bonus := 0.0
		for j := range referrals {
			ref := &referrals[j]
			refSubs, err := s.subRepo.FindPayingByUserID(db, ref.ReferredUserID)
			if err != nil {
				return nil, apperrors.InternalError(err)
			}
			paying := false
			for k := range refSubs {
				if refSubs[k].IsActivelyPaying(now) {
					paying = true
					break
				}
			}
			if !paying {
				continue
			}
			bonus += ref.ProfitPerMonth
			entry := dto.UserStatsReferral{
				ID:             ref.ID,
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
			activeRefs = append(activeRefs, entry)
		}

		fee := float64(payingStocks) * models.DefaultMonthlyFee
		out = append(out, dto.UserStats{
			ID:                   owner.ID,
			Email:                owner.Email,
			DisplayName:          owner.DisplayName,
			Role:                 string(owner.Role),
			ActiveStocks:         payingStocks,
			StocksFee:            fee,
			ActiveReferralsCount: len(activeRefs),
			ActiveReferrals:      activeRefs,
			Bonus:                bonus,
			NetValue:             fee - bonus,
		})
	}
	return out, nil
}

// Approve activates the subscription and, inside the same transaction,
// runs the one-shot referral credit for the owner's referrer.
func (s *SubscriptionServiceImpl) Approve(db *gorm.DB, subscriptionID, apiToken string) (*dto.AdminSubscription, error) {
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		return nil, apperrors.ErrAPITokenRequired
	}

	var sub *models.Subscription
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = s.subRepo.FindByID(tx, subscriptionID)
		if err != nil {
			if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
				return apperrors.ErrSubscriptionNotFound
			}
			return apperrors.InternalError(err)
		}

		now := time.Now()
		until := now.AddDate(0, 0, models.ActivePeriodDays)
		sub.Status = models.SubscriptionStatusActive
		sub.APIToken = apiToken
		sub.LastActivatedAt = &now
		sub.ActiveUntil = &until
		sub.RejectionReason = ""

		if err := s.subRepo.Update(tx, sub); err != nil {
			return apperrors.InternalError(err)
		}

		return s.referralService.CreditFirstActivation(tx, sub.UserID, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("subscription approved", "subscriptionId", sub.ID, "stockId", sub.StockID, "userId", sub.UserID)
	s.notifyOwner(db, sub.UserID,
		"Your subscription is active",
		fmt.Sprintf("Your stock %s has been approved and is active until %s.",
			sub.StockID, sub.ActiveUntil.Format("2006-01-02")))

	return s.toAdminSubscription(sub, time.Now()), nil
}

func (s *SubscriptionServiceImpl) Reject(db *gorm.DB, subscriptionID, reason string) (*dto.AdminSubscription, error) {
	sub, err := s.subRepo.FindByID(db, subscriptionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	sub.Status = models.SubscriptionStatusCancelled
	sub.RejectionReason = reason
	if err := s.subRepo.Update(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("subscription rejected", "subscriptionId", sub.ID, "reason", reason)
	return s.toAdminSubscription(sub, time.Now()), nil
}

func (s *SubscriptionServiceImpl) Toggle(db *gorm.DB, subscriptionID string) (*dto.AdminSubscription, error) {
	sub, err := s.subRepo.FindByID(db, subscriptionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if sub.IsActive() {
		sub.Status = models.SubscriptionStatusCancelled
	} else {
		sub.Status = models.SubscriptionStatusActive
		if sub.ActiveUntil == nil {
			until := time.Now().AddDate(0, 0, models.ActivePeriodDays)
			sub.ActiveUntil = &until
		}
	}

	if err := s.subRepo.Update(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.toAdminSubscription(sub, time.Now()), nil
}

func (s *SubscriptionServiceImpl) SetToken(db *gorm.DB, subscriptionID, apiToken string) (*dto.AdminSubscription, error) {
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		return nil, apperrors.ErrAPITokenRequired
	}

	sub, err := s.subRepo.FindByID(db, subscriptionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	sub.APIToken = apiToken
	if err := s.subRepo.Update(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.toAdminSubscription(sub, time.Now()), nil
}

func (s *SubscriptionServiceImpl) MarkExpired(db *gorm.DB, subscriptionID string) (*dto.AdminSubscription, error) {
	sub, err := s.subRepo.FindByID(db, subscriptionID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	sub.Status = models.SubscriptionStatusExpired
	if err := s.subRepo.Update(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("subscription marked expired", "subscriptionId", sub.ID)
	return s.toAdminSubscription(sub, time.Now()), nil
}

// notifyOwner sends a best-effort email. Delivery failures are logged
// and otherwise ignored.
func (s *SubscriptionServiceImpl) notifyOwner(db *gorm.DB, userID, subject, body string) {
	if s.emailProvider == nil {
		return
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		logger.Warn("notification skipped, owner lookup failed", "userId", userID, "error", err)
		return
	}
	msg := &email.Email{
		To:      []string{user.Email},
		Subject: subject,
		Body:    body,
	}
	if err := s.emailProvider.Send(msg); err != nil {
		logger.Warn("notification email failed", "userId", userID, "error", err)
	}
}
