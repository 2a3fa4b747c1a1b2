// Package settings provides the PostgreSQL-backed repository for per-user
// settings (app-lock PIN, display name).
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/dbx"
	"github.com/avolkov/diaryvault/internal/server/models"
)

// PostgresRepository implements settings storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Find returns the settings row for userID, or common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT user_id, pin_hash, pin_enabled, display_name, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`
	var s models.UserSettings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.PINHash, &s.PINEnabled, &s.DisplayName, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

// Upsert creates or updates the settings row keyed by user_id.
func (r *PostgresRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, pin_hash, pin_enabled, display_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			pin_hash = EXCLUDED.pin_hash,
			pin_enabled = EXCLUDED.pin_enabled,
			display_name = EXCLUDED.display_name,
			updated_at = now();
	`
	_, err := r.db.ExecContext(ctx, query, s.UserID, s.PINHash, s.PINEnabled, s.DisplayName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
