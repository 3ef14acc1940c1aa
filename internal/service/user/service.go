package user

import (
	"context"
	"strings"

	"log/slog"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

// Service manages user profiles, preferences, and favorite assets.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger) Service {
	return Service{users: users, logger: logger}
}

// ProfileUpdate carries optional profile changes. Nil fields are left alone.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// GetByID loads one user.
func (s Service) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile changes display name and avatar.
func (s Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Avatar != nil {
		user.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePreferences merges a partial settings change into the stored blob.
// The stored result always has both fields populated.
func (s Service) UpdatePreferences(ctx context.Context, userID string, update domain.PreferencesUpdate) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged := domain.MergePreferences(user.Preferences, update)
	user.Preferences = &merged
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddFavorite records an asset symbol in the user's favorites. Calling it
// again with the same symbol is a no-op.
func (s Service) AddFavorite(ctx context.Context, userID, symbol string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Preferences == nil {
		defaults := domain.DefaultPreferences()
		user.Preferences = &defaults
	}
	user.Preferences.AddFavorite(symbol)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RemoveFavorite drops an asset symbol from the user's favorites. Removing
// an absent symbol is a no-op.
func (s Service) RemoveFavorite(ctx context.Context, userID, symbol string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Preferences != nil {
		user.Preferences.RemoveFavorite(symbol)
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
