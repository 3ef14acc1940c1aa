package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

// CreateNotification inserts an alert row.
func (r *Repository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	const query = `INSERT INTO notifications (id, user_id, type, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var data []byte
	if len(notification.Data) > 0 {
		data = notification.Data
	}
	_, err := r.pool.Exec(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Body,
		data,
		notification.IsRead,
		notification.CreatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// ListNotificationsByUser returns a page of alerts, newest first, plus the
// user's total count.
func (r *Repository) ListNotificationsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error) {
	var total int
	const countQuery = `SELECT COUNT(1) FROM notifications WHERE user_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT id, user_id, type, title, body, data, is_read, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var (
			n    domain.Notification
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(data) > 0 {
			n.Data = data
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

// MarkNotificationRead flags one alert as read. Scoped to the owning user so
// a caller cannot acknowledge someone else's alerts.
func (r *Repository) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2 RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, notificationID, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// MarkAllNotificationsRead flags every unread alert for the user.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// UpsertDeviceToken registers a device, reactivating and renaming an
// existing registration for the same (user, token) pair.
func (r *Repository) UpsertDeviceToken(ctx context.Context, token *domain.DeviceToken) error {
	const query = `INSERT INTO device_tokens (id, user_id, token, platform, device_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, token) DO UPDATE
			SET is_active = TRUE,
				device_name = EXCLUDED.device_name,
				updated_at = NOW()
		RETURNING id, created_at, updated_at`
	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	row := r.pool.QueryRow(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Platform,
		nullString(token.DeviceName),
		token.IsActive,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err := row.Scan(&id, &createdAt, &updatedAt); err != nil {
		return translateError(err)
	}
	token.ID = id
	token.CreatedAt = createdAt
	token.UpdatedAt = updatedAt
	return nil
}

// DeactivateDeviceToken flips the registration off without removing the row.
func (r *Repository) DeactivateDeviceToken(ctx context.Context, userID, token string) error {
	const query = `UPDATE device_tokens SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND token = $2 RETURNING id`
	var id string
	if err := r.pool.QueryRow(ctx, query, userID, token).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// ListActiveDeviceTokens returns the user's registered devices that are
// still eligible for push delivery.
func (r *Repository) ListActiveDeviceTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	const query = `SELECT id, user_id, token, platform, device_name, is_active, created_at, updated_at
		FROM device_tokens WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]domain.DeviceToken, 0)
	for rows.Next() {
		var (
			t          domain.DeviceToken
			deviceName *string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &deviceName, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if deviceName != nil {
			t.DeviceName = *deviceName
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
