// Package models holds the persisted row shapes the diary core depends on.
package models

import "time"

// Entry is one diary entry row. Content is the transport-encoded cipher
// envelope for new rows, or raw plaintext for rows predating encryption.
// One row exists per (UserID, EntryDate); saves upsert on that pair.
type Entry struct {
	ID        string
	UserID    string
	EntryDate string // calendar day, YYYY-MM-DD, no time component
	Content   string
	WordCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
