package domain

import (
	"strings"
	"time"
)

// User represents a platform account. Every user carries at least one
// authentication method: a password hash, a linked Google identity, or both.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash []byte       `json:"-"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar,omitempty"`
	GoogleID     string       `json:"googleId,omitempty"`
	IsActive     bool         `json:"isActive"`
	Preferences  *Preferences `json:"preferences,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// HasPassword reports whether the account supports password login.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

// Preferences is the user's settings blob. It is either absent entirely or
// fully populated; a stored preferences object never has a missing field.
type Preferences struct {
	Notifications  bool     `json:"notifications"`
	FavoriteAssets []string `json:"favoriteAssets"`
}

// DefaultPreferences returns the settings applied to accounts that never
// stored any.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, FavoriteAssets: []string{}}
}

// PreferencesUpdate carries a partial settings change. Nil fields keep the
// previous value.
type PreferencesUpdate struct {
	Notifications  *bool    `json:"notifications,omitempty"`
	FavoriteAssets []string `json:"favoriteAssets,omitempty"`
}

// MergePreferences resolves an update against the stored value. Precedence
// per field: updated value, then previous value, then default.
func MergePreferences(previous *Preferences, update PreferencesUpdate) Preferences {
	merged := DefaultPreferences()
	if previous != nil {
		merged = *previous
	}
	if update.Notifications != nil {
		merged.Notifications = *update.Notifications
	}
	if update.FavoriteAssets != nil {
		merged.FavoriteAssets = update.FavoriteAssets
	}
	if merged.FavoriteAssets == nil {
		merged.FavoriteAssets = []string{}
	}
	return merged
}

// AddFavorite inserts a symbol into the favorites set. Idempotent.
func (p *Preferences) AddFavorite(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, existing := range p.FavoriteAssets {
		if existing == symbol {
			return
		}
	}
	p.FavoriteAssets = append(p.FavoriteAssets, symbol)
}

// RemoveFavorite deletes a symbol from the favorites set. Idempotent.
func (p *Preferences) RemoveFavorite(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	kept := p.FavoriteAssets[:0]
	for _, existing := range p.FavoriteAssets {
		if existing != symbol {
			kept = append(kept, existing)
		}
	}
	p.FavoriteAssets = kept
}

// UserSummary is the public projection returned with session payloads.
type UserSummary struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Summary projects the user for API responses.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, Avatar: u.Avatar}
}
