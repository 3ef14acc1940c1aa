package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

// ErrInvalidInput is returned when notification input fails validation.
var ErrInvalidInput = errors.New("notification: invalid input")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Broadcaster pushes a payload to every open stream for a user.
type Broadcaster interface {
	Broadcast(userID string, payload []byte)
}

// Service stores alerts and pushes them to connected clients.
type Service struct {
	notifications repository.NotificationRepository
	devices       repository.DeviceTokenRepository
	hub           Broadcaster
	logger        *slog.Logger
}

// New constructs a Service. hub may be nil when live push is disabled.
func New(notifications repository.NotificationRepository, devices repository.DeviceTokenRepository, hub Broadcaster, logger *slog.Logger) Service {
	return Service{notifications: notifications, devices: devices, hub: hub, logger: logger}
}

// CreateInput describes a new alert for one user.
type CreateInput struct {
	UserID string          `json:"userId"`
	Type   string          `json:"type"`
	Title  string          `json:"title"`
	Body   string          `json:"body"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Create persists an alert and pushes it to the user's open streams.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Notification, error) {
	if input.UserID == "" || strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidInput
	}
	switch input.Type {
	case domain.NotificationReversalAlert, domain.NotificationPriceAlert, domain.NotificationSystem:
	default:
		return nil, ErrInvalidInput
	}
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		Data:      input.Data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	s.push(n)
	return n, nil
}

// SendReversalAlert formats and delivers a reversal prediction alert.
func (s Service) SendReversalAlert(ctx context.Context, userID, symbol string, point domain.ReversalPoint) (*domain.Notification, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidInput
	}
	direction := "Bearish"
	if point.Type == domain.ReversalBullish {
		direction = "Bullish"
	}
	data, err := json.Marshal(point)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, CreateInput{
		UserID: userID,
		Type:   domain.NotificationReversalAlert,
		Title:  fmt.Sprintf("%s reversal detected on %s", direction, symbol),
		Body:   fmt.Sprintf("Predicted %s reversal at %.2f with %.0f%% confidence.", strings.ToLower(direction), point.Price, point.Confidence*100),
		Data:   data,
	})
}

// List returns the user's alerts, newest first.
func (s Service) List(ctx context.Context, userID string, limit, offset int) (*domain.NotificationPage, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	notifications, total, err := s.notifications.ListNotificationsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &domain.NotificationPage{Data: notifications, Total: total}, nil
}

// MarkRead marks one of the user's alerts as read.
func (s Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.notifications.MarkNotificationRead(ctx, notificationID, userID)
}

// MarkAllRead marks every unread alert for the user as read.
func (s Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}

// RegisterDevice records a device token for push delivery. Re-registering an
// existing token reactivates it.
func (s Service) RegisterDevice(ctx context.Context, userID, token, platform, deviceName string) (*domain.DeviceToken, error) {
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return nil, ErrInvalidInput
	}
	if platform != domain.PlatformIOS && platform != domain.PlatformAndroid {
		return nil, ErrInvalidInput
	}
	now := time.Now().UTC()
	device := &domain.DeviceToken{
		ID:         uuid.NewString(),
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		DeviceName: strings.TrimSpace(deviceName),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.devices.UpsertDeviceToken(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// UnregisterDevice deactivates a device token.
func (s Service) UnregisterDevice(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}
	return s.devices.DeactivateDeviceToken(ctx, userID, token)
}

// Devices lists the user's active push registrations.
func (s Service) Devices(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	return s.devices.ListActiveDeviceTokens(ctx, userID)
}

func (s Service) push(n *domain.Notification) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("notification push encode failed", "notification_id", n.ID, "error", err)
		return
	}
	s.hub.Broadcast(n.UserID, payload)
}
