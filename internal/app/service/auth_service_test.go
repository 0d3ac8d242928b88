package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/savanna-table/savanna-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret"

type fakeRevoker struct {
	tokens map[string]time.Duration
	err    error
}

func (f *fakeRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.tokens[token] = ttl
	return nil
}

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB, *fakeRevoker) {
	util.SetBcryptCost(bcrypt.MinCost)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	revoker := &fakeRevoker{tokens: map[string]time.Duration{}}
	authService := NewAuthService(
		repository.NewUserRepository(testDB),
		repository.NewAdminRepository(testDB),
		revoker,
		testJWTSecret,
		7*24*time.Hour,
	)
	return authService, testDB, revoker
}

func TestAuthService_Register(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name: "Valid registration",
			input: RegisterInput{
				Email: "  Ada@Example.com ", Password: "password123",
				FirstName: "Ada", LastName: "Obi", Phone: "555-0100",
			},
		},
		{
			name: "Duplicate email with different case",
			input: RegisterInput{
				Email: "ada@example.com", Password: "password456",
				FirstName: "Another", LastName: "User",
			},
			wantErr: ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := authService.Register(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", user.Email)
			assert.NotEqual(t, tt.input.Password, user.PasswordHash)

			claims, err := util.ValidateToken(token, testJWTSecret)
			require.NoError(t, err)
			assert.Equal(t, user.ID, claims.UserID)
			assert.Equal(t, util.RoleUser, claims.Role)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService, testDB, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email: "login@example.com", Password: "password123", FirstName: "Lola", LastName: "Ade",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "Valid credentials", email: "login@example.com", password: "password123"},
		{name: "Email is normalised", email: " LOGIN@example.com", password: "password123"},
		{name: "Wrong password", email: "login@example.com", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "Unknown email", email: "nobody@example.com", password: "password123", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := authService.Login(tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotNil(t, user.LastLoginAt)
		})
	}

	var stored model.User
	require.NoError(t, testDB.Where("email = ?", "login@example.com").First(&stored).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthService_AdminLogin(t *testing.T) {
	authService, testDB, _ := setupAuthServiceTest(t)

	hash, err := util.HashPassword("admin123")
	require.NoError(t, err)
	active := &model.Admin{Name: "Chef", Email: "chef@savannable.com", PasswordHash: hash, Role: model.AdminRoleAdmin, IsActive: true}
	inactive := &model.Admin{Name: "Former", Email: "former@savannable.com", PasswordHash: hash, Role: model.AdminRoleAdmin, IsActive: false}
	require.NoError(t, testDB.Create(active).Error)
	require.NoError(t, testDB.Create(inactive).Error)

	admin, token, err := authService.AdminLogin("CHEF@savannable.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, active.ID, admin.ID)
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, util.RoleAdmin, claims.Role)

	_, _, err = authService.AdminLogin("chef@savannable.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.AdminLogin("former@savannable.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// a customer account cannot log in as admin
	_, _, err = authService.Register(RegisterInput{Email: "cust@example.com", Password: "admin123", FirstName: "C"})
	require.NoError(t, err)
	_, _, err = authService.AdminLogin("cust@example.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_UnknownEmailStillComparesPassword(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	var compared []string
	original := compareUnknownAccount
	compareUnknownAccount = func(password string) {
		compared = append(compared, password)
		original(password)
	}
	t.Cleanup(func() { compareUnknownAccount = original })

	_, _, err := authService.Register(RegisterInput{Email: "known@example.com", Password: "password123", FirstName: "K"})
	require.NoError(t, err)

	_, _, err = authService.Login("known@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, compared)

	_, _, err = authService.Login("ghost@example.com", "guess-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = authService.AdminLogin("ghost@savannable.com", "guess-2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, []string{"guess-1", "guess-2"}, compared)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, revoker := setupAuthServiceTest(t)

	_, token, err := authService.Register(RegisterInput{Email: "out@example.com", Password: "password123", FirstName: "O"})
	require.NoError(t, err)
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)

	require.NoError(t, authService.Logout(context.Background(), token, claims))
	ttl, ok := revoker.tokens[token]
	require.True(t, ok)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), ttl.Seconds(), 5)

	revoker.err = errors.New("redis down")
	assert.Error(t, authService.Logout(context.Background(), token, claims))

	withoutStore := NewAuthService(nil, nil, nil, testJWTSecret, time.Hour)
	assert.NoError(t, withoutStore.Logout(context.Background(), token, claims))
}

func TestAuthService_Profile(t *testing.T) {
	authService, testDB, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register(RegisterInput{Email: "p@example.com", Password: "password123", FirstName: "Pat", LastName: "Eze"})
	require.NoError(t, err)
	require.NoError(t, testDB.Create(&model.Address{UserID: user.ID, Street: "1 Acacia Ave", City: "Austin", State: "TX", ZipCode: "73301", IsDefault: true}).Error)

	profile, err := authService.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Eze", profile.FullName())
	require.Len(t, profile.Addresses, 1)

	updated, err := authService.UpdateProfile(user.ID, " Patricia ", "Eze", "555-0199")
	require.NoError(t, err)
	assert.Equal(t, "Patricia", updated.FirstName)
	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, "p@example.com", updated.Email)

	_, err = authService.GetProfile(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = authService.UpdateProfile(9999, "No", "One", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
