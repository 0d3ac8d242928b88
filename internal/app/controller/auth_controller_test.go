package controller

import (
	"net/http"
	"testing"

	"github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register_Success(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     "Amara@Example.com",
		Password:  "password123",
		FirstName: "Amara",
		LastName:  "Okafor",
		Phone:     "555-0101",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "User registered successfully", resp["message"])
	assert.NotEmpty(t, resp["token"])

	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "amara@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")
}

func TestAuthController_Register_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "password123", FirstName: "A", LastName: "B"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "12345", FirstName: "A", LastName: "B"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/register", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errors.ValidationInvalidInput, errorCode(t, w))
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "amara@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:     "AMARA@example.com",
		Password:  "password456",
		FirstName: "Other",
		LastName:  "Person",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errors.AuthEmailAlreadyExists, errorCode(t, w))
}

func TestAuthController_Login(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "amara@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "amara@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.NotEmpty(t, resp["token"])
	assert.NotNil(t, resp["user"].(map[string]interface{})["last_login_at"])

	w = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "amara@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.AuthInvalidCredentials, errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_AdminLogin(t *testing.T) {
	env := setupTestEnv(t)
	_, _, err := env.adminService.EnsureSuperAdmin("Head Chef", "chef@savanna.test", "admin123")
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/admin/login", "", LoginRequest{Email: "chef@savanna.test", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	admin := decode(t, w)["admin"].(map[string]interface{})
	assert.Equal(t, "super-admin", admin["role"])

	// customer credentials do not open the admin door
	env.registerUser(t, "amara@example.com")
	w = env.do(t, http.MethodPost, "/api/admin/login", "", LoginRequest{Email: "amara@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RoleSeparation(t *testing.T) {
	env := setupTestEnv(t)
	_, userToken := env.registerUser(t, "amara@example.com")
	adminToken := env.adminToken(t)

	w := env.do(t, http.MethodGet, "/api/admin/dashboard", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/user/profile", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/user/profile", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_Logout(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "amara@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
