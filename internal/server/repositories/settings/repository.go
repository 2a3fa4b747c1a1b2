package settings

import (
	"context"

	"github.com/avolkov/diaryvault/internal/server/models"
)

type Repository interface {
	// Find returns the settings row for userID, or common.ErrNotFound.
	Find(ctx context.Context, userID string) (*models.UserSettings, error)

	// Upsert creates or updates the settings row keyed by user_id.
	Upsert(ctx context.Context, s *models.UserSettings) error
}
