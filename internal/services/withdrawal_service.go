package services

import (
	"fmt"
	"time"

	"zaistock_backend/internal/email"
	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/models"
	"zaistock_backend/internal/repositories"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type WithdrawalService interface {
	// Request creates a pending withdrawal. The flat fee is charged on
	// top of the amount, so the most a user can ask for is balance - fee.
	Request(db *gorm.DB, userID string, amount float64) (*dto.WithdrawalView, error)

	History(db *gorm.DB, userID string) ([]dto.WithdrawalView, error)
	ListAll(db *gorm.DB) ([]dto.WithdrawalView, error)

	// Approve debits the user and finalizes the request. receiptPath is
	// the stored receipt's storage key, required.
	Approve(db *gorm.DB, withdrawalID, adminID, receiptPath, note string) (*dto.WithdrawalView, error)
	Reject(db *gorm.DB, withdrawalID, adminID, reason string) (*dto.WithdrawalView, error)
}

type WithdrawalServiceImpl struct {
	userRepo       repositories.UserRepository
	withdrawalRepo repositories.WithdrawalRepository
	emailProvider  email.Provider
}

func NewWithdrawalService(
	userRepo repositories.UserRepository,
	withdrawalRepo repositories.WithdrawalRepository,
	emailProvider email.Provider,
) WithdrawalService {
	return &WithdrawalServiceImpl{
		userRepo:       userRepo,
		withdrawalRepo: withdrawalRepo,
		emailProvider:  emailProvider,
	}
}

func (s *WithdrawalServiceImpl) Request(db *gorm.DB, userID string, amount float64) (*dto.WithdrawalView, error) {
	if amount < 1 {
		return nil, apperrors.ErrWithdrawalBelowMinimum
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.InternalError(err)
	}

	maxWithdrawable := user.WithdrawableBalance - models.DefaultWithdrawalFee
	if maxWithdrawable < 0 {
		maxWithdrawable = 0
	}
	if amount > maxWithdrawable {
		return nil, apperrors.ErrAmountExceedsWithdrawable(maxWithdrawable)
	}

	withdrawal := &models.Withdrawal{
		UserID:    userID,
		Amount:    amount,
		Fee:       models.DefaultWithdrawalFee,
		NetAmount: amount,
		Status:    models.WithdrawalStatusPending,
	}
	if err := s.withdrawalRepo.Create(db, withdrawal); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("withdrawal requested", "userId", userID, "amount", amount)
	return toWithdrawalView(withdrawal, false), nil
}

func (s *WithdrawalServiceImpl) History(db *gorm.DB, userID string) ([]dto.WithdrawalView, error) {
	withdrawals, err := s.withdrawalRepo.FindByUserID(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]dto.WithdrawalView, 0, len(withdrawals))
	for i := range withdrawals {
		out = append(out, *toWithdrawalView(&withdrawals[i], false))
	}
	return out, nil
}

func (s *WithdrawalServiceImpl) ListAll(db *gorm.DB) ([]dto.WithdrawalView, error) {
	withdrawals, err := s.withdrawalRepo.FindAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]dto.WithdrawalView, 0, len(withdrawals))
	for i := range withdrawals {
		out = append(out, *toWithdrawalView(&withdrawals[i], true))
	}
	return out, nil
}

// Approve moves the money: the guarded balance debit, the status flip
// and the receipt all commit together or not at all.
func (s *WithdrawalServiceImpl) Approve(db *gorm.DB, withdrawalID, adminID, receiptPath, note string) (*dto.WithdrawalView, error) {
	if receiptPath == "" {
		return nil, apperrors.ErrReceiptRequired
	}

	var withdrawal *models.Withdrawal
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		withdrawal, err = s.withdrawalRepo.FindByID(tx, withdrawalID)
		if err != nil {
			if apperrors.Is(err, repositories.ErrWithdrawalNotFound) {
				return apperrors.ErrWithdrawalNotFound
			}
			return apperrors.InternalError(err)
		}
		if withdrawal.IsProcessed() {
			return apperrors.ErrWithdrawalProcessed
		}

		if err := s.userRepo.DebitBalance(tx, withdrawal.UserID, withdrawal.TotalDeduction()); err != nil {
			if apperrors.Is(err, repositories.ErrInsufficientBalance) {
				return apperrors.ErrInsufficientBalance
			}
			return apperrors.InternalError(err)
		}

		now := time.Now()
		withdrawal.Status = models.WithdrawalStatusApproved
		withdrawal.Receipt = receiptPath
		withdrawal.AdminNote = note
		withdrawal.ProcessedByID = &adminID
		withdrawal.ProcessedAt = &now
		if err := s.withdrawalRepo.Update(tx, withdrawal); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawal approved",
		"withdrawalId", withdrawal.ID,
		"userId", withdrawal.UserID,
		"amount", withdrawal.Amount,
		"processedBy", adminID)
	s.notifyUser(db, withdrawal.UserID,
		"Your withdrawal was approved",
		fmt.Sprintf("Your withdrawal of $%.2f has been paid out ($%.2f fee applied).",
			withdrawal.Amount, withdrawal.Fee))

	return toWithdrawalView(withdrawal, false), nil
}

func (s *WithdrawalServiceImpl) Reject(db *gorm.DB, withdrawalID, adminID, reason string) (*dto.WithdrawalView, error) {
	withdrawal, err := s.withdrawalRepo.FindByID(db, withdrawalID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrWithdrawalNotFound) {
			return nil, apperrors.ErrWithdrawalNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if withdrawal.IsProcessed() {
		return nil, apperrors.ErrWithdrawalProcessed
	}

	now := time.Now()
	withdrawal.Status = models.WithdrawalStatusRejected
	withdrawal.AdminNote = reason
	withdrawal.ProcessedByID = &adminID
	withdrawal.ProcessedAt = &now
	if err := s.withdrawalRepo.Update(db, withdrawal); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.Info("withdrawal rejected", "withdrawalId", withdrawal.ID, "reason", reason)
	return toWithdrawalView(withdrawal, false), nil
}

func toWithdrawalView(w *models.Withdrawal, withUser bool) *dto.WithdrawalView {
	view := &dto.WithdrawalView{
		ID:          w.ID,
		Amount:      w.Amount,
		Fee:         w.Fee,
		NetAmount:   w.NetAmount,
		Status:      string(w.Status),
		Receipt:     w.Receipt,
		AdminNote:   w.AdminNote,
		RequestedAt: w.CreatedAt,
		ProcessedAt: w.ProcessedAt,
	}
	if withUser && w.User != nil {
		view.User = &dto.OwnerSummary{
			ID:          w.User.ID,
			Email:       w.User.Email,
			DisplayName: w.User.DisplayName,
		}
	}
	return view
}

func (s *WithdrawalServiceImpl) notifyUser(db *gorm.DB, userID, subject, body string) {
	if s.emailProvider == nil {
		return
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		logger.Warn("notification skipped, user lookup failed", "userId", userID, "error", err)
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
