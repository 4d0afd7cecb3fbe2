package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dhamira/core/user"
	testutil "github.com/trezcool/dhamira/tests"
)

func TestUserAuthAPI(t *testing.T) {
	pwd := "LePassword123!"
	usr := testutil.CreateUser(t, usrRepo, "Jim Jones", "jimj", "jimj@test.cd", pwd, user.StudentRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Kim Kat", "kimk", "kimk@test.cd", pwd, user.AdminRoles, true)
	deactivated := testutil.CreateUser(t, usrRepo, "Dede D", "dede", "dede@test.cd", pwd, user.StudentRoles, false)

	login := func(t *testing.T, uname, pwd string) ([]byte, int) {
		body := marchallObj(t, map[string]string{"username": uname, "password": pwd})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		return rec.Body.Bytes(), rec.Code
	}

	t.Run("login ok", func(t *testing.T) {
		body, code := login(t, usr.Username, pwd)
		require.Equal(t, http.StatusOK, code, string(body))

		var res struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(body, &res))
		assert.NotEmpty(t, res.Token)
	})

	t.Run("login with email ok", func(t *testing.T) {
		_, code := login(t, usr.Email, pwd)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("login bad password", func(t *testing.T) {
		body, code := login(t, usr.Username, "nope")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.JSONEq(t, `{"error":"authentication failed"}`, string(body))
	})

	t.Run("login unknown user", func(t *testing.T) {
		_, code := login(t, "who", pwd)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("login deactivated account", func(t *testing.T) {
		body, code := login(t, deactivated.Username, pwd)
		assert.Equal(t, http.StatusForbidden, code)
		assert.JSONEq(t, `{"error":"account deactivated"}`, string(body))
	})

	t.Run("login missing fields", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"username": usr.Username})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("protected endpoint requires token", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		}
		req, rec := newRequest(http.MethodGet, "/v1/users")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("user listing is admin only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, usr))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users", getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("token refresh", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.Token)
	})

	t.Run("retrieve self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, usr.ID, res.ID)
	})

	t.Run("cannot retrieve others unless admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+admin.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUserEmailVerificationAPI(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Vera V", "verav", "verav@test.cd", "LePassword123!", user.StudentRoles, true)
	// no code was ever requested for this one
	other := testutil.CreateUser(t, usrRepo, "Nova N", "novan", "novan@test.cd", "LePassword123!", user.StudentRoles, true)

	t.Run("request returns generic success", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": usr.Email})
		req, rec := newRequest(http.MethodPost, "/v1/users/email-verification", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("request for unknown email still succeeds", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "ghost@test.cd"})
		req, rec := newRequest(http.MethodPost, "/v1/users/email-verification", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("confirm with wrong code", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": other.Email, "code": "000000"})
		req, rec := newRequest(http.MethodPost, "/v1/users/email-verification-confirm", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code":"invalid or expired verification code"}`, rec.Body.String())
	})

	t.Run("confirm with malformed code", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": usr.Email, "code": "12"})
		req, rec := newRequest(http.MethodPost, "/v1/users/email-verification-confirm", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
