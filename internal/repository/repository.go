package repository

import (
	"context"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
)

// UserRepository persists user accounts. Lookups return ErrNotFound for a
// missing row, never a nil user with a nil error.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// AssetRepository persists the instrument catalog.
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset *domain.Asset) error
	ListAssets(ctx context.Context, query domain.AssetQuery) ([]domain.Asset, int, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)
	ListAssetsBySymbols(ctx context.Context, symbols []string) ([]domain.Asset, error)
	UpdateAssetPrice(ctx context.Context, symbol string, update domain.PriceUpdate) (*domain.Asset, error)
	ListAssetsOrdered(ctx context.Context, orderBy string, ascending bool, limit int) ([]domain.Asset, error)
}

// NotificationRepository stores per-user alerts.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *domain.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// DeviceTokenRepository stores push registration bookkeeping.
type DeviceTokenRepository interface {
	UpsertDeviceToken(ctx context.Context, token *domain.DeviceToken) error
	DeactivateDeviceToken(ctx context.Context, userID, token string) error
	ListActiveDeviceTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error)
}
