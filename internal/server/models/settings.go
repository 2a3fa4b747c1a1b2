package models

import "time"

// UserSettings carries the app-lock PIN state and profile bits.
// PINHash is stored as "salt:hash" (hex SHA-256), empty when no PIN is set.
type UserSettings struct {
	UserID      string
	PINHash     string
	PINEnabled  bool
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
