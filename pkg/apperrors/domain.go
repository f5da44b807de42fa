package apperrors

import (
	"fmt"
	"net/http"
)

// Domain factories and predefined errors for the subscription, referral,
// withdrawal and auth flows.

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeUnauthorized,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrCannotModifySelf = New(
	CodeForbidden,
	"auth",
	"Cannot change your own role",
	http.StatusForbidden,
)

func ErrOAuthExchange(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "auth", "OAuth code exchange failed", http.StatusBadGateway)
}

// --- Subscriptions ---

var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription not found",
	http.StatusNotFound,
)

var ErrPaymentProofRequired = New(
	CodeValidationFailed,
	"subscription",
	"Payment proof is required",
	http.StatusBadRequest,
)

var ErrAPITokenRequired = New(
	CodeValidationFailed,
	"subscription",
	"API token is required",
	http.StatusBadRequest,
)

// ErrStockIDExhausted is returned when the bounded collision-retry loop
// failed to produce an unused stock id.
var ErrStockIDExhausted = New(
	CodeConflict,
	"subscription",
	"Failed to generate unique stock ID",
	http.StatusInternalServerError,
)

// --- Referrals ---

var ErrReferralCodeAlreadyUsed = New(
	CodeConflict,
	"referral",
	"You have already used a referral code",
	http.StatusConflict,
)

var ErrSelfReferral = New(
	CodeValidationFailed,
	"referral",
	"Cannot use your own referral code",
	http.StatusBadRequest,
)

var ErrReferralCodeNotFound = New(
	CodeNotFound,
	"referral",
	"Invalid referral code",
	http.StatusNotFound,
)

var ErrAlreadyReferred = New(
	CodeConflict,
	"referral",
	"You have already been referred",
	http.StatusConflict,
)

// --- Withdrawals ---

var ErrWithdrawalNotFound = New(
	CodeNotFound,
	"withdrawal",
	"Withdraw request not found",
	http.StatusNotFound,
)

var ErrWithdrawalProcessed = New(
	CodeConflict,
	"withdrawal",
	"Withdraw request already processed",
	http.StatusConflict,
)

var ErrReceiptRequired = New(
	CodeValidationFailed,
	"withdrawal",
	"Receipt is required",
	http.StatusBadRequest,
)

var ErrInsufficientBalance = New(
	CodeInvalidStatus,
	"withdrawal",
	"User has insufficient withdrawable balance",
	http.StatusBadRequest,
)

func ErrAmountExceedsWithdrawable(max float64) *AppError {
	return New(
		CodeValidationFailed,
		"withdrawal",
		fmt.Sprintf("Maximum withdrawable is $%.2f (after $1 fee)", max),
		http.StatusBadRequest,
	)
}

var ErrWithdrawalBelowMinimum = New(
	CodeValidationFailed,
	"withdrawal",
	"Minimum withdraw amount is $1",
	http.StatusBadRequest,
)

// --- Files ---

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrUnsupportedFileType = New(
	CodeValidationFailed,
	"validation",
	"Only image and PDF files are allowed",
	http.StatusBadRequest,
)
