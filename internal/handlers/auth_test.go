package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bazaar/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"username": "test_user",
		"email":    "test_user@example.com",
		"password": "password123",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User registered successfully.", body["message"])
	assert.Equal(t, false, body["is_seller"])
	assert.NotEmpty(t, body["user_id"])

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "test_user").First(&user).Error)
	assert.Equal(t, "user", user.Role)
	assert.True(t, user.IsCustomer)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestRegister_FieldErrors(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("taken", "password123", "user")

	tests := []struct {
		name    string
		payload map[string]any
		field   string
		message string
	}{
		{
			name:    "missing username",
			payload: map[string]any{"email": "a@example.com", "password": "password123"},
			field:   "username",
			message: "this field is required",
		},
		{
			name:    "bad email",
			payload: map[string]any{"username": "u1", "email": "not-an-email", "password": "password123"},
			field:   "email",
			message: "enter a valid email address",
		},
		{
			name:    "short password",
			payload: map[string]any{"username": "u2", "email": "u2@example.com", "password": "short"},
			field:   "password",
			message: "password must be at least 8 characters",
		},
		{
			name:    "duplicate email",
			payload: map[string]any{"username": "fresh", "email": "taken@example.com", "password": "password123"},
			field:   "email",
			message: "email already in use",
		},
		{
			name:    "duplicate username",
			payload: map[string]any{"username": "taken", "email": "fresh@example.com", "password": "password123"},
			field:   "username",
			message: "username already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", tt.payload)
			require.NoError(t, env.A.Register(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody(t, rec)
			errs, ok := body["errors"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.message, errs[tt.field])
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user", "password123", "user")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "test_user", "password": "password123"})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access"])
	assert.NotEmpty(t, body["refresh"])
	assert.Equal(t, false, body["is_seller"])
	assert.Equal(t, false, body["is_verified"])

	// persisted so it can be revoked later
	var count int64
	env.DB.Model(&models.RefreshToken{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLogin_SellerFlags(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("merchant", "password123", "user")
	env.createSeller(user, "Acme", true)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "merchant", "password": "password123"})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["is_seller"])
	assert.Equal(t, true, body["is_verified"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user", "password123", "user")

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "test_user", "password": "wrong-password"})
	requireHTTPError(t, env.A.Login(c), http.StatusUnauthorized)

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "nobody", "password": "password123"})
	requireHTTPError(t, env.A.Login(c), http.StatusUnauthorized)
}

func TestLogOut(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user", "password123", "user")

	recLogin, cLogin := env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "test_user", "password": "password123"})
	require.NoError(t, env.A.Login(cLogin))
	refresh := decodeBody(t, recLogin)["refresh"].(string)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/logout", map[string]any{"refresh": refresh})
	require.NoError(t, env.A.LogOut(c))
	require.Equal(t, http.StatusResetContent, rec.Code)
	assert.Equal(t, "Successfully logged out.", decodeBody(t, rec)["detail"])

	// a revoked token cannot log out twice
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/logout", map[string]any{"refresh": refresh})
	requireHTTPError(t, env.A.LogOut(c), http.StatusBadRequest)
}

func TestLogOut_BadToken(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/logout", map[string]any{"refresh": "garbage"})
	requireHTTPError(t, env.A.LogOut(c), http.StatusBadRequest)

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/logout", map[string]any{})
	requireHTTPError(t, env.A.LogOut(c), http.StatusBadRequest)
}

// resetLink pulls uid and token out of the mailed reset URL, which ends with
// /reset-password/{uid}/{token}/.
func resetLink(t *testing.T, body string) (string, string) {
	t.Helper()

	fields := strings.Fields(body)
	require.NotEmpty(t, fields)
	parts := strings.Split(strings.TrimSuffix(fields[len(fields)-1], "/"), "/")
	require.GreaterOrEqual(t, len(parts), 2)
	return parts[len(parts)-2], parts[len(parts)-1]
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("forgetful", "oldpassword1", "user")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/password-reset",
		map[string]any{"email": "forgetful@example.com"})
	require.NoError(t, env.A.PasswordReset(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.Mail.Sent, 1)
	assert.Equal(t, "forgetful@example.com", env.Mail.Sent[0].To)
	uid, token := resetLink(t, env.Mail.Sent[0].Body)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/password-reset-confirm",
		map[string]any{"uid": uid, "token": token, "password": "newpassword1"})
	require.NoError(t, env.A.PasswordResetConfirm(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// old password is dead, new one works
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "forgetful", "password": "oldpassword1"})
	requireHTTPError(t, env.A.Login(c), http.StatusUnauthorized)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/login",
		map[string]any{"username": "forgetful", "password": "newpassword1"})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// the token burned on first use
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/password-reset-confirm",
		map[string]any{"uid": uid, "token": token, "password": "anotherpass1"})
	requireHTTPError(t, env.A.PasswordResetConfirm(c), http.StatusBadRequest)
}

func TestPasswordReset_UnknownEmailLooksTheSame(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/password-reset",
		map[string]any{"email": "ghost@example.com"})
	require.NoError(t, env.A.PasswordReset(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.Mail.Sent)
}

func TestPasswordResetConfirm_Rejections(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("forgetful", "oldpassword1", "user")

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/password-reset-confirm",
		map[string]any{"uid": "!!!", "token": "whatever", "password": "newpassword1"})
	requireHTTPError(t, env.A.PasswordResetConfirm(c), http.StatusBadRequest)

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/password-reset-confirm",
		map[string]any{"uid": encodeUID(user.ID), "token": "wrong-token", "password": "newpassword1"})
	requireHTTPError(t, env.A.PasswordResetConfirm(c), http.StatusBadRequest)

	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/password-reset-confirm",
		map[string]any{"uid": encodeUID(user.ID), "token": "whatever", "password": "short"})
	requireHTTPError(t, env.A.PasswordResetConfirm(c), http.StatusBadRequest)
}
