package entries

import (
	"context"

	"github.com/avolkov/diaryvault/internal/server/models"
)

type Repository interface {
	// Upsert creates or replaces the entry for (UserID, EntryDate).
	// Last write wins; concurrent saves to the same pair may race.
	Upsert(ctx context.Context, entry *models.Entry) error

	// Find returns the entry for the given user and date, or common.ErrNotFound.
	Find(ctx context.Context, userID, entryDate string) (*models.Entry, error)

	// ListDates returns the distinct entry dates for a user, newest first,
	// formatted YYYY-MM-DD.
	ListDates(ctx context.Context, userID string) ([]string, error)

	// ListAll returns every entry for a user, oldest first. Used by the
	// administrative migration and backup paths, not the request path.
	ListAll(ctx context.Context, userID string) ([]*models.Entry, error)
}
