package models

import "time"

// EncryptionSalt is the durable copy of a user's key-derivation salt.
// Exactly one row exists per user, and once written the value is immutable:
// regenerating it would orphan every envelope encrypted under the old key.
type EncryptionSalt struct {
	UserID    string
	SaltValue string // hex-encoded random bytes
	CreatedAt time.Time
}
