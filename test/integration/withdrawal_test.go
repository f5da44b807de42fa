package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"zaistock_backend/internal/models"
	"zaistock_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithdrawal_Boundary pins the max-withdrawable rule: with a $10
// balance and the $1 fee, $9 passes and $9.50 is refused with the
// computed maximum in the message.
func TestWithdrawal_Boundary(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, user := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, user.ID, 10)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", token,
		map[string]interface{}{"amount": 9.5})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Maximum withdrawable is $9.00")

	res, body = ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", token,
		map[string]interface{}{"amount": 9})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created struct {
		Withdrawal struct {
			Amount    float64 `json:"amount"`
			Fee       float64 `json:"fee"`
			NetAmount float64 `json:"netAmount"`
			Status    string  `json:"status"`
		} `json:"withdrawal"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.InDelta(t, 9, created.Withdrawal.Amount, 0.001)
	assert.InDelta(t, 1, created.Withdrawal.Fee, 0.001)
	assert.InDelta(t, 9, created.Withdrawal.NetAmount, 0.001)
	assert.Equal(t, "pending", created.Withdrawal.Status)
}

func TestWithdrawal_BelowMinimum(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, user := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, user.ID, 10)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", token,
		map[string]interface{}{"amount": 0.5})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Minimum withdraw amount is $1")
}

func TestWithdrawal_ApproveDebitsBalance(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, member.ID, 10)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", memberToken,
		map[string]interface{}{"amount": 5})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created struct {
		Withdrawal struct {
			ID string `json:"id"`
		} `json:"withdrawal"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	res, body = ts.SendMultipart(t, tx, "POST",
		"/api/subscription/admin/withdraw/"+created.Withdrawal.ID+"/approve",
		adminToken,
		map[string]string{"note": "paid via Kaspi"},
		map[string]helpers.UploadFile{
			"receipt": {Name: "receipt.png", Content: fakePNG},
		})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"approved"`)

	// Amount plus the flat fee left the balance: 10 - (5 + 1) = 4.
	var balance float64
	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", member.ID).
		Pluck("withdrawable_balance", &balance).Error)
	assert.InDelta(t, 4, balance, 0.001)
}

func TestWithdrawal_ApproveGuards(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, member.ID, 10)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", memberToken,
		map[string]interface{}{"amount": 5})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created struct {
		Withdrawal struct {
			ID string `json:"id"`
		} `json:"withdrawal"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	// Missing receipt.
	res, body = ts.SendMultipart(t, tx, "POST",
		"/api/subscription/admin/withdraw/"+created.Withdrawal.ID+"/approve",
		adminToken, map[string]string{"note": "no file"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Receipt is required")

	// Unknown id.
	res, _ = ts.SendMultipart(t, tx, "POST",
		"/api/subscription/admin/withdraw/00000000-0000-0000-0000-000000000000/approve",
		adminToken, nil,
		map[string]helpers.UploadFile{
			"receipt": {Name: "receipt.png", Content: fakePNG},
		})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// Balance drained between request and approval.
	helpers.SetBalance(t, tx, member.ID, 0)
	res, body = ts.SendMultipart(t, tx, "POST",
		"/api/subscription/admin/withdraw/"+created.Withdrawal.ID+"/approve",
		adminToken, nil,
		map[string]helpers.UploadFile{
			"receipt": {Name: "receipt.png", Content: fakePNG},
		})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "insufficient withdrawable balance")
}

func TestWithdrawal_RejectKeepsBalance(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	memberToken, member := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, member.ID, 10)

	res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", memberToken,
		map[string]interface{}{"amount": 5})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created struct {
		Withdrawal struct {
			ID string `json:"id"`
		} `json:"withdrawal"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))

	res, body = ts.SendRequest(t, tx, "POST",
		"/api/subscription/admin/withdraw/"+created.Withdrawal.ID+"/reject",
		adminToken, map[string]interface{}{"reason": "bank details missing"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"status":"rejected"`)

	var balance float64
	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", member.ID).
		Pluck("withdrawable_balance", &balance).Error)
	assert.InDelta(t, 10, balance, 0.001)

	// A processed request cannot be approved afterwards.
	res, body = ts.SendMultipart(t, tx, "POST",
		"/api/subscription/admin/withdraw/"+created.Withdrawal.ID+"/approve",
		adminToken, nil,
		map[string]helpers.UploadFile{
			"receipt": {Name: "receipt.png", Content: fakePNG},
		})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body, "already processed")
}

func TestWithdrawal_History(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, user := helpers.CreateAndLoginMember(t, ts, tx)
	helpers.SetBalance(t, tx, user.ID, 20)

	for _, amount := range []float64{3, 5} {
		res, body := ts.SendRequest(t, tx, "POST", "/api/subscription/withdraw/request", token,
			map[string]interface{}{"amount": amount})
		require.Equal(t, http.StatusCreated, res.StatusCode, body)
	}

	res, body := ts.SendRequest(t, tx, "GET", "/api/subscription/withdraw/history", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var history struct {
		Withdrawals []struct {
			Amount float64 `json:"amount"`
		} `json:"withdrawals"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &history))
	assert.Equal(t, 2, history.Total)
}
