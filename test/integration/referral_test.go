package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"zaistock_backend/internal/models"
	"zaistock_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralCode_LazyAndStable(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/code", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var first struct {
		ReferralCode string `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &first))
	assert.True(t, strings.HasPrefix(first.ReferralCode, "REF-"))
	assert.Len(t, first.ReferralCode, len("REF-")+8)

	// Second call returns the same code, not a fresh one.
	res, body = ts.SendRequest(t, tx, "GET", "/api/subscription/referral/code", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var second struct {
		ReferralCode string `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &second))
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestReferralInsert_And_DoubleRedeemConflict(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	referrerToken, referrer := helpers.CreateAndLoginMember(t, ts, tx)
	redeemerToken, _ := helpers.CreateAndLoginMember(t, ts, tx)
	otherToken, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/code", referrerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var codeResp struct {
		ReferralCode string `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &codeResp))

	res, body = ts.SendRequest(t, tx, "POST", "/api/subscription/referral/insert", redeemerToken,
		map[string]interface{}{"referralCode": codeResp.ReferralCode})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, referrer.Email)

	// A second redemption by the same user conflicts, even with another
	// user's valid code.
	res, otherBody := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/code", otherToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var otherCode struct {
		ReferralCode string `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(otherBody), &otherCode))

	res, body = ts.SendRequest(t, tx, "POST", "/api/subscription/referral/insert", redeemerToken,
		map[string]interface{}{"referralCode": otherCode.ReferralCode})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body, "already used a referral code")
}

func TestReferralInsert_SelfReferral(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/code", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var codeResp struct {
		ReferralCode string `json:"referralCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &codeResp))

	res, body = ts.SendRequest(t, tx, "POST", "/api/subscription/referral/insert", token,
		map[string]interface{}{"referralCode": codeResp.ReferralCode})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Cannot use your own referral code")
}

func TestReferralInsert_UnknownCode(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/referral/insert", token,
		map[string]interface{}{"referralCode": "REF-NOSUCH00"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, "Invalid referral code")
}

// TestReferralBonus_OneShot pins the bonus accounting: the referrer is
// credited exactly once, at the referred user's first approval, and a
// second approved subscription does not pay again.
func TestReferralBonus_OneShot(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	_, referrer := helpers.CreateAndLoginMember(t, ts, tx)
	_, referred := helpers.CreateAndLoginMember(t, ts, tx)

	helpers.CreateReferralEdge(t, tx, referrer.ID, referred.ID, "REF-ONESHOT0")

	first := helpers.CreateSubscription(t, tx, referred.ID, models.SubscriptionStatusPending)
	res, body := ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/subscriptions/"+first.ID+"/approve",
		adminToken, map[string]interface{}{"apiToken": "TKN-A"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var balance float64
	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", referrer.ID).
		Pluck("withdrawable_balance", &balance).Error)
	assert.InDelta(t, models.DefaultProfitPerMonth, balance, 0.001)

	var edge models.Referral
	require.NoError(t, tx.First(&edge, "referred_user_id = ?", referred.ID).Error)
	require.NotNil(t, edge.FirstActiveDate)
	assert.NotEmpty(t, edge.MonthlyEarnings)

	// Second subscription, second approval: no further credit.
	second := helpers.CreateSubscription(t, tx, referred.ID, models.SubscriptionStatusPending)
	res, body = ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/subscriptions/"+second.ID+"/approve",
		adminToken, map[string]interface{}{"apiToken": "TKN-B"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", referrer.ID).
		Pluck("withdrawable_balance", &balance).Error)
	assert.InDelta(t, models.DefaultProfitPerMonth, balance, 0.001)
}

func TestReferralStats(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	referrerToken, referrer := helpers.CreateAndLoginMember(t, ts, tx)
	_, active := helpers.CreateAndLoginMember(t, ts, tx)
	_, inactive := helpers.CreateAndLoginMember(t, ts, tx)

	helpers.CreateReferralEdge(t, tx, referrer.ID, active.ID, "REF-STATS001")
	helpers.CreateReferralEdge(t, tx, referrer.ID, inactive.ID, "REF-STATS001")
	helpers.CreateSubscription(t, tx, active.ID, models.SubscriptionStatusActive)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/stats", referrerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var stats struct {
		TotalReferrals       int     `json:"totalReferrals"`
		ActiveReferralsCount int     `json:"activeReferralsCount"`
		CurrentMonthEarnings float64 `json:"currentMonthEarnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Equal(t, 2, stats.TotalReferrals)
	assert.Equal(t, 1, stats.ActiveReferralsCount)
	assert.InDelta(t, models.DefaultProfitPerMonth, stats.CurrentMonthEarnings, 0.001)
}

func TestReferralActiveList(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	referrerToken, referrer := helpers.CreateAndLoginMember(t, ts, tx)
	_, active := helpers.CreateAndLoginMember(t, ts, tx)

	helpers.CreateReferralEdge(t, tx, referrer.ID, active.ID, "REF-ACTLIST0")
	helpers.CreateSubscription(t, tx, active.ID, models.SubscriptionStatusActive)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/referral/active", referrerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var resp struct {
		ActiveReferrals []struct {
			ProfitPerMonth float64 `json:"profitPerMonth"`
		} `json:"activeReferrals"`
		TotalProfit float64 `json:"totalProfit"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.ActiveReferrals, 1)
	assert.InDelta(t, models.DefaultProfitPerMonth, resp.TotalProfit, 0.001)
}
