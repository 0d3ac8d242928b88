package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	apperrors "github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/savanna-table/savanna-backend/internal/metrics"
	"github.com/savanna-table/savanna-backend/pkg/logger"
	"github.com/savanna-table/savanna-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// TokenRevoker records logged-out tokens until they would have expired anyway
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, string, error)
	Login(email, password string) (*model.User, string, error)
	AdminLogin(email, password string) (*model.Admin, string, error)
	Logout(ctx context.Context, token string, claims *util.Claims) error
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, firstName, lastName, phone string) (*model.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	adminRepo repository.AdminRepository
	revoker   TokenRevoker
	jwtSecret string
	expiry    time.Duration
	now       func() time.Time
}

// NewAuthService builds the auth service. revoker may be nil, in which case logout only succeeds.
func NewAuthService(
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	revoker TokenRevoker,
	jwtSecret string,
	expiry time.Duration,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		adminRepo: adminRepo,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		expiry:    expiry,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(input RegisterInput) (*model.User, string, error) {
	email := normalizeEmail(input.Email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, "", ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
	}
	if err := s.userRepo.Create(user); err != nil {
		// lost a race with a concurrent registration of the same email
		if apperrors.ParseError(err, "user").Code == apperrors.AuthEmailAlreadyExists {
			return nil, "", ErrEmailAlreadyExists
		}
		return nil, "", err
	}

	token, err := util.GenerateToken(user.ID, user.Email, util.RoleUser, s.jwtSecret, s.expiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user, token, nil
}

// compareUnknownAccount keeps unknown-email logins as slow as wrong-password ones
var compareUnknownAccount = util.CompareDummyPassword

func (s *authService) Login(email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			compareUnknownAccount(password)
			metrics.LoginAttempt(util.RoleUser, false)
			return nil, "", ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		metrics.LoginAttempt(util.RoleUser, false)
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateToken(user.ID, user.Email, util.RoleUser, s.jwtSecret, s.expiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, "", err
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	metrics.LoginAttempt(util.RoleUser, true)
	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, token, nil
}

// AdminLogin authenticates against the admins table. Inactive accounts look like bad credentials.
func (s *authService) AdminLogin(email, password string) (*model.Admin, string, error) {
	email = normalizeEmail(email)
	logger.Info("Admin login attempt", map[string]interface{}{
		"email": email,
	})

	admin, err := s.adminRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			compareUnknownAccount(password)
			metrics.LoginAttempt(util.RoleAdmin, false)
			return nil, "", ErrInvalidCredentials
		}
		logger.Error("Failed to find admin", err, map[string]interface{}{
			"email": email,
		})
		return nil, "", err
	}

	passwordOK := util.VerifyPassword(admin.PasswordHash, password)
	if !admin.IsActive || !passwordOK {
		logger.Warn("Admin login failed", map[string]interface{}{
			"admin_id": admin.ID,
			"active":   admin.IsActive,
		})
		metrics.LoginAttempt(util.RoleAdmin, false)
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateToken(admin.ID, admin.Email, util.RoleAdmin, s.jwtSecret, s.expiry)
	if err != nil {
		logger.Error("Failed to generate admin token", err, map[string]interface{}{
			"admin_id": admin.ID,
		})
		return nil, "", err
	}

	now := s.now()
	if err := s.adminRepo.UpdateLastLogin(admin.ID, now); err != nil {
		logger.Warn("Failed to record admin last login", map[string]interface{}{
			"admin_id": admin.ID,
			"error":    err.Error(),
		})
	} else {
		admin.LastLoginAt = &now
	}

	metrics.LoginAttempt(util.RoleAdmin, true)
	logger.Info("Admin logged in successfully", map[string]interface{}{
		"admin_id": admin.ID,
		"role":     admin.Role,
	})
	return admin, token, nil
}

func (s *authService) Logout(ctx context.Context, token string, claims *util.Claims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, token, claims.RemainingTTL()); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
		return err
	}

	logger.Info("Token revoked", map[string]interface{}{
		"user_id": claims.UserID,
		"role":    claims.Role,
	})
	return nil
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to load user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, firstName, lastName, phone string) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	err := s.userRepo.UpdateProfile(
		userID,
		strings.TrimSpace(firstName),
		strings.TrimSpace(lastName),
		strings.TrimSpace(phone),
	)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.GetProfile(userID)
}
