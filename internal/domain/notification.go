package domain

import (
	"encoding/json"
	"time"
)

// Notification categories.
const (
	NotificationReversalAlert = "reversal_alert"
	NotificationPriceAlert    = "price_alert"
	NotificationSystem        = "system"
)

// Device platforms accepted for push registration.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// Notification is a stored alert for one user.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NotificationPage is a paginated notification listing.
type NotificationPage struct {
	Data  []Notification `json:"data"`
	Total int            `json:"total"`
}

// DeviceToken records a mobile device registered for push delivery.
// The (user, token) pair is unique; unregistering flips IsActive rather
// than deleting the row.
type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Token      string    `json:"token"`
	Platform   string    `json:"platform"`
	DeviceName string    `json:"deviceName,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
