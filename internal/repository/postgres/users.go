package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

const userColumns = `id, email, password_hash, name, avatar, google_id, is_active, preferences, created_at, updated_at`

// CreateUser inserts a user. A duplicate email or google id surfaces as
// ErrConflict from the unique constraints.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	prefs, err := marshalPreferences(user.Preferences)
	if err != nil {
		return err
	}
	const query = `INSERT INTO users (id, email, password_hash, name, avatar, google_id, is_active, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		nullString(user.Avatar),
		nullString(user.GoogleID),
		user.IsActive,
		prefs,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByGoogleID fetches a user by linked Google identity.
func (r *Repository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, googleID))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateUser persists all mutable fields of an existing record. The primary
// id never changes.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	prefs, err := marshalPreferences(user.Preferences)
	if err != nil {
		return err
	}
	const query = `UPDATE users
		SET email = $2,
			password_hash = $3,
			name = $4,
			avatar = $5,
			google_id = $6,
			is_active = $7,
			preferences = $8,
			updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	var updatedAt time.Time
	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		nullString(user.Avatar),
		nullString(user.GoogleID),
		user.IsActive,
		prefs,
	)
	if err := row.Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return translateError(err)
	}
	user.UpdatedAt = updatedAt
	return nil
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		avatar   *string
		googleID *string
		prefs    []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &avatar, &googleID, &u.IsActive, &prefs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if avatar != nil {
		u.Avatar = *avatar
	}
	if googleID != nil {
		u.GoogleID = *googleID
	}
	if len(prefs) > 0 {
		var p domain.Preferences
		if err := json.Unmarshal(prefs, &p); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
		u.Preferences = &p
	}
	return &u, nil
}

func marshalPreferences(p *domain.Preferences) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return data, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
