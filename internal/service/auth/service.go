package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
	"github.com/talnw1123/TrendReversal-Backend/pkg/config"
	"github.com/talnw1123/TrendReversal-Backend/pkg/crypto"
	jwtpkg "github.com/talnw1123/TrendReversal-Backend/pkg/jwt"
)

var (
	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials is returned for every login failure. Callers
	// cannot tell a missing account from a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidInput is returned when registration fields fail validation.
	ErrInvalidInput = errors.New("auth: invalid input")
)

const (
	passwordMinLen = 6
	passwordMaxLen = 50
	nameMinLen     = 2
	nameMaxLen     = 100
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"expiresIn"`
}

// Session is the payload returned by every login flow.
type Session struct {
	User   domain.UserSummary `json:"user"`
	Tokens TokenPair          `json:"tokens"`
}

// Register creates a password account and opens a session for it.
func (s Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, password, name); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Concurrent registration races resolve at the unique constraint.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	tokens, err := s.issueTokens(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return &Session{User: user.Summary(), Tokens: tokens}, nil
}

// Login authenticates a password account. Missing user, password-less
// account, and wrong password all collapse into ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return &Session{User: user.Summary(), Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token's signature, expiry, and kind are all verified here; the refresh
// token itself is not rotated.
func (s Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := jwtpkg.Parse(strings.TrimSpace(refreshToken), s.cfg.JWTSecret)
	if err != nil {
		return "", err
	}
	if claims.Kind != jwtpkg.KindRefresh {
		return "", jwtpkg.ErrInvalidToken
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	return jwtpkg.GenerateToken(user.ID, user.Email, jwtpkg.KindAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
}

// Authorize validates a bearer access token and returns the associated user
// and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, jwtpkg.ErrInvalidToken
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	if claims.Kind != jwtpkg.KindAccess {
		return nil, nil, jwtpkg.ErrInvalidToken
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

func (s Service) issueTokens(userID, email string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(userID, email, jwtpkg.KindAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(userID, email, jwtpkg.KindRefresh, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, password, name string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address required", ErrInvalidInput)
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidInput, passwordMinLen, passwordMaxLen)
	}
	if len(name) < nameMinLen || len(name) > nameMaxLen {
		return fmt.Errorf("%w: name must be %d-%d characters", ErrInvalidInput, nameMinLen, nameMaxLen)
	}
	return nil
}
