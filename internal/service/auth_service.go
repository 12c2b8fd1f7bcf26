package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Synoep/instahyre/internal/domain"
	"github.com/Synoep/instahyre/internal/security/auth"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned on any failed login attempt. The
// message is deliberately generic to prevent phone number enumeration.
var ErrInvalidCredentials = errors.New("invalid phone or password")

// dummyHash is compared against on login attempts for unknown phone
// numbers to reduce the timing difference between an existing and a
// non-existing user.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)

// AuthService handles registration and login
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// RegisterResult represents registration response
type RegisterResult struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Token  string `json:"token"`
}

// LoginResult represents login response
type LoginResult struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	TokenType string `json:"token_type"`
}

// Register creates a new user account keyed by phone number. Returns
// domain.ErrDuplicate when the phone is already registered.
func (s *AuthService) Register(ctx context.Context, name, phone, password string) (*RegisterResult, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" {
		return nil, domain.NewValidationError("name", "required")
	}
	if phone == "" {
		return nil, domain.NewValidationError("phone", "required")
	}
	if len(password) < 6 {
		return nil, domain.NewValidationError("password", "must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDuplicate
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Phone, user.Name, tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))

	return &RegisterResult{
		UserID: user.ID,
		Name:   user.Name,
		Phone:  user.Phone,
		Token:  token,
	}, nil
}

// Login authenticates a user by phone number and returns a bearer token
func (s *AuthService) Login(ctx context.Context, phone, password string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		// Burn a hash comparison anyway so unknown phones take about as
		// long as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.Info("login attempt with unknown phone", slog.String("phone", phone))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Phone, user.Name, tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		UserID:    user.ID,
		Name:      user.Name,
		Token:     token,
		ExpiresIn: int(tokenTTL.Seconds()),
		TokenType: "Bearer",
	}, nil
}
