package salts

import "context"

// Repository is the durable (system-of-record) store for per-user
// encryption salts.
type Repository interface {
	// Find returns the hex salt for userID, or common.ErrNotFound.
	Find(ctx context.Context, userID string) (string, error)

	// Create inserts the salt for userID unless a row already exists, and
	// returns the value that is now durable. Under a concurrent first-use
	// race the insert loser adopts the winner's salt: two different salts
	// must never be handed out for the same user.
	Create(ctx context.Context, userID, saltHex string) (string, error)
}
