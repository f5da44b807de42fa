package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"zaistock_backend/internal/models"
	"zaistock_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfakeimagedata")

func TestSubscriptionRequest_CreatesPending(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendMultipart(t, tx, "POST", "/api/subscription/request", token, nil,
		map[string]helpers.UploadFile{
			"paymentProof": {Name: "proof.png", Content: fakePNG},
		})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Contains(t, body, `"status":"pending"`)
	assert.Contains(t, body, "STOCK-")

	var parsed struct {
		Subscription struct {
			ID       string  `json:"id"`
			StockID  string  `json:"stockId"`
			APIToken *string `json:"apiToken"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.NotEmpty(t, parsed.Subscription.StockID)
	assert.Nil(t, parsed.Subscription.APIToken)
}

func TestSubscriptionRequest_RejectsMissingProof(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendMultipart(t, tx, "POST", "/api/subscription/request", token,
		map[string]string{"note": "no file"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Payment proof is required")
}

func TestSubscriptionRequest_RejectsWrongFileType(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendMultipart(t, tx, "POST", "/api/subscription/request", token, nil,
		map[string]helpers.UploadFile{
			"paymentProof": {Name: "malware.exe", Content: []byte("MZ")},
		})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Only image and PDF files are allowed")
}

// TestApproveFlow walks the full happy path: request, admin approval
// with an issued API token, then the owner sees the active grant with
// the token visible.
func TestApproveFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	userToken, _ := helpers.CreateAndLoginMember(t, ts, tx)
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)

	res, body := ts.SendMultipart(t, tx, "POST", "/api/subscription/request", userToken, nil,
		map[string]helpers.UploadFile{
			"paymentProof": {Name: "proof.png", Content: fakePNG},
		})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created struct {
		Subscription struct {
			ID string `json:"id"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	res, body = ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/subscriptions/"+created.Subscription.ID+"/approve",
		adminToken, map[string]interface{}{"apiToken": "TKN123"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"active"`)

	res, body = ts.SendRequest(t, tx, "GET", "/api/subscription/my", userToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var listed struct {
		Subscriptions []struct {
			Status      string     `json:"status"`
			IsActive    bool       `json:"isActive"`
			IsExpired   bool       `json:"isExpired"`
			APIToken    *string    `json:"apiToken"`
			ActiveUntil *time.Time `json:"activeUntil"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed.Subscriptions, 1)

	sub := listed.Subscriptions[0]
	assert.Equal(t, "active", sub.Status)
	assert.True(t, sub.IsActive)
	assert.False(t, sub.IsExpired)
	require.NotNil(t, sub.APIToken)
	assert.Equal(t, "TKN123", *sub.APIToken)
	require.NotNil(t, sub.ActiveUntil)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, models.ActivePeriodDays), *sub.ActiveUntil, time.Minute)
}

func TestApprove_RequiresToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	_, member := helpers.CreateAndLoginMember(t, ts, tx)
	sub := helpers.CreateSubscription(t, tx, member.ID, models.SubscriptionStatusPending)

	res, _ := ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/subscriptions/"+sub.ID+"/approve",
		adminToken, map[string]interface{}{"apiToken": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestReject_StoresReason(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)
	sub := helpers.CreateSubscription(t, tx, member.ID, models.SubscriptionStatusPending)

	res, body := ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/subscriptions/"+sub.ID+"/reject",
		adminToken, map[string]interface{}{"reason": "proof unreadable"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"cancelled"`)

	res, body = ts.SendRequest(t, tx, "GET", "/api/subscription/my", memberToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "proof unreadable")
}

// TestTokenRedaction_Expired pins the strict expiry rule: a subscription
// past its window stays status=active until the sweep runs, but the
// owner no longer sees the token and isExpired flips.
func TestTokenRedaction_Expired(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)

	sub := helpers.CreateSubscription(t, tx, member.ID, models.SubscriptionStatusActive)
	past := time.Now().AddDate(0, 0, -1)
	require.NoError(t, tx.Model(sub).Update("active_until", past).Error)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/my", memberToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var listed struct {
		Subscriptions []struct {
			IsExpired   bool    `json:"isExpired"`
			APIToken    *string `json:"apiToken"`
			HasAPIToken bool    `json:"hasApiToken"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed.Subscriptions, 1)
	assert.True(t, listed.Subscriptions[0].IsExpired)
	assert.Nil(t, listed.Subscriptions[0].APIToken)
	assert.True(t, listed.Subscriptions[0].HasAPIToken)
}

func TestDashboard_Figures(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)
	_, referred := helpers.CreateAndLoginMember(t, ts, tx)

	helpers.CreateSubscription(t, tx, member.ID, models.SubscriptionStatusActive)
	helpers.CreateSubscription(t, tx, referred.ID, models.SubscriptionStatusActive)
	helpers.CreateReferralEdge(t, tx, member.ID, referred.ID, "REF-TESTCODE")
	helpers.SetBalance(t, tx, member.ID, 2.5)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/dashboard", memberToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var dash struct {
		HasActiveSubscription bool    `json:"hasActiveSubscription"`
		ActiveStocksCount     int     `json:"activeStocksCount"`
		TotalReferrals        int     `json:"totalReferrals"`
		ActiveReferrals       int     `json:"activeReferrals"`
		MonthlyProfit         float64 `json:"monthlyProfit"`
		NetCost               float64 `json:"netCost"`
		WithdrawableBalance   float64 `json:"withdrawableBalance"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &dash))
	assert.True(t, dash.HasActiveSubscription)
	assert.Equal(t, 1, dash.ActiveStocksCount)
	assert.Equal(t, 1, dash.TotalReferrals)
	assert.Equal(t, 1, dash.ActiveReferrals)
	assert.InDelta(t, 2.5, dash.MonthlyProfit, 0.001)
	assert.InDelta(t, 7.5, dash.NetCost, 0.001)
	assert.InDelta(t, 2.5, dash.WithdrawableBalance, 0.001)
}

func TestAdminProjections_RequireAdmin(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	memberToken, _ := helpers.CreateAndLoginMember(t, ts, tx)

	for _, path := range []string{
		"/api/subscription/admin/subscriptions/pending",
		"/api/subscription/admin/subscriptions/active",
		"/api/subscription/admin/subscriptions/all",
		"/api/subscription/admin/subscriptions/expired",
		"/api/subscription/admin/users/stats",
	} {
		res, _ := ts.SendRequest(t, tx, "GET", path, memberToken, nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode, path)
	}
}

func TestAdminPendingList_ShowsOwner(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	_, member := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.CreateSubscription(t, tx, member.ID, models.SubscriptionStatusPending)

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/admin/subscriptions/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, member.Email)
}
