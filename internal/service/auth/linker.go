package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

// GoogleIdentity is an externally verified OAuth identity. The OAuth
// callback layer has already checked the provider's signature before this
// payload reaches the service.
type GoogleIdentity struct {
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

// GoogleLogin reconciles an inbound Google identity against the account
// store and opens a session for the resulting user. Email is the single
// source of truth for account identity:
//
//   - no account for the email: a new Google-only user is created;
//   - a password account exists without a Google link: the identity is
//     attached to it, leaving name and password untouched;
//   - the account is already linked: it is reused unchanged.
func (s Service) GoogleLogin(ctx context.Context, identity GoogleIdentity) (*Session, error) {
	user, err := s.linkIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	tokens, err := s.issueTokens(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("google login", "user_id", user.ID)
	return &Session{User: user.Summary(), Tokens: tokens}, nil
}

func (s Service) linkIdentity(ctx context.Context, identity GoogleIdentity) (*domain.User, error) {
	email := normalizeEmail(identity.Email)
	if identity.GoogleID == "" || email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: google identity incomplete", ErrInvalidInput)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		now := time.Now().UTC()
		user = &domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      identity.Name,
			Avatar:    identity.Avatar,
			GoogleID:  identity.GoogleID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("google account created", "user_id", user.ID)
		return user, nil
	}

	if user.GoogleID != "" {
		// Returning OAuth user; uniqueness guarantees the ids match.
		return user, nil
	}

	user.GoogleID = identity.GoogleID
	if user.Avatar == "" {
		user.Avatar = identity.Avatar
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("google identity linked", "user_id", user.ID)
	return user, nil
}
