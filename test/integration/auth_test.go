package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"zaistock_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevLogin_Success(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, user := helpers.CreateAndLoginMember(t, ts, tx)
	assert.NotEmpty(t, token)

	res, body := ts.SendRequest(t, tx, "GET", "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, user.Email)
}

func TestDevLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	_, user := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "POST", "/api/auth/dev/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Invalid email or password")
}

func TestMe_Anonymous(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, body := ts.SendRequest(t, tx, "GET", "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var parsed struct {
		User *json.RawMessage `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Nil(t, parsed.User)
}

func TestProfile_RequiresAuth(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, _ := ts.SendRequest(t, tx, "GET", "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, tx, "GET", "/api/auth/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminUsers_ForbiddenForMember(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "GET", "/api/auth/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, body, "Admin access required")
}

func TestToggleRole_CannotToggleSelf(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, admin := helpers.CreateAndLoginAdmin(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "POST", "/api/auth/admin/users/"+admin.ID+"/toggle-role", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, body, "Cannot change your own role")
}

func TestToggleRole_PromotesMember(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts, tx)
	_, member := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "POST", "/api/auth/admin/users/"+member.ID+"/toggle-role", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"role":"admin"`)
}

func TestUpdateProfile_PayoutDetails(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginMember(t, ts, tx)

	res, body := ts.SendRequest(t, tx, "PUT", "/api/auth/profile", token, map[string]interface{}{
		"bankName":    "Kaspi",
		"bankAccount": "KZ123456789",
		"whatsapp":    "+77001234567",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Kaspi")
	assert.Contains(t, body, "KZ123456789")
}
