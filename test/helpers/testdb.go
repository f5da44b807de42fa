package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"zaistock_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser inserts a user, hashing the password if a raw one is set.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) error {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user.PasswordHash = string(hashed)
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.EmailVerified = true

	if err := db.Create(user).Error; err != nil {
		t.Logf("failed to create user %s: %v", user.Email, err)
		return err
	}
	return nil
}

// CreateAndLoginUser inserts a user and logs in through the dev login
// endpoint, returning the session token.
func CreateAndLoginUser(t *testing.T, ts *TestServer, tx *gorm.DB, name, email, password string, role models.UserRole) (string, *models.User) {
	user := &models.User{
		Email:        email,
		DisplayName:  name,
		PasswordHash: password,
		Role:         role,
	}
	err := CreateUser(t, tx, user)
	require.NoError(t, err, "creating a test user must not fail")

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/auth/dev/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, "login must succeed, got: "+bodyStr)

	var loginResponse struct {
		Token string `json:"token"`
	}
	err = json.Unmarshal([]byte(bodyStr), &loginResponse)
	require.NoError(t, err)
	assert.NotEmpty(t, loginResponse.Token)

	user.PasswordHash = password
	return loginResponse.Token, user
}

// CreateAndLoginMember creates a regular user with a unique email.
func CreateAndLoginMember(t *testing.T, ts *TestServer, tx *gorm.DB) (string, *models.User) {
	email := fmt.Sprintf("member_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, tx, "Test Member", email, "password123", models.UserRoleUser)
}

// CreateAndLoginAdmin creates an admin with a unique email.
func CreateAndLoginAdmin(t *testing.T, ts *TestServer, tx *gorm.DB) (string, *models.User) {
	email := fmt.Sprintf("admin_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, tx, "Test Admin", email, "password123", models.UserRoleAdmin)
}

// CreateSubscription inserts a subscription directly.
func CreateSubscription(t *testing.T, tx *gorm.DB, userID string, status models.SubscriptionStatus) *models.Subscription {
	sub := &models.Subscription{
		UserID:     userID,
		StockID:    fmt.Sprintf("STOCK-TEST-%d", time.Now().UnixNano()),
		Status:     status,
		MonthlyFee: models.DefaultMonthlyFee,
	}
	if status == models.SubscriptionStatusActive {
		now := time.Now()
		until := now.AddDate(0, 0, models.ActivePeriodDays)
		sub.LastActivatedAt = &now
		sub.ActiveUntil = &until
		sub.APIToken = "test-token"
	}
	require.NoError(t, tx.Create(sub).Error, "failed to create test subscription")
	return sub
}

// CreateReferralEdge inserts a referral edge directly.
func CreateReferralEdge(t *testing.T, tx *gorm.DB, referrerID, referredUserID, code string) *models.Referral {
	referral := &models.Referral{
		ReferrerID:     referrerID,
		ReferredUserID: referredUserID,
		ReferralCode:   code,
		ProfitPerMonth: models.DefaultProfitPerMonth,
	}
	require.NoError(t, tx.Create(referral).Error, "failed to create test referral")
	return referral
}

// SetBalance overwrites a user's withdrawable balance.
func SetBalance(t *testing.T, tx *gorm.DB, userID string, amount float64) {
	err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("withdrawable_balance", amount).Error
	require.NoError(t, err, "failed to set test balance")
}
