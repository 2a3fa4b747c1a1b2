// Package salts provides the PostgreSQL-backed repository for per-user
// encryption salts. The table is the system of record: a salt that has not
// landed here must never be used for encryption.
package salts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/dbx"
)

// PostgresRepository implements salt storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Find returns the hex salt for userID, or common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, userID string) (string, error) {
	query := `SELECT encryption_salt FROM user_encryption_keys WHERE user_id = $1`

	var salt string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&salt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return salt, nil
}

// Create inserts the salt unless the user already has one, then reads back
// whichever value is durable. ON CONFLICT DO NOTHING plus the mandatory
// re-read makes the first-use race benign: the loser adopts the winner's
// salt instead of proceeding with its own.
func (r *PostgresRepository) Create(ctx context.Context, userID, saltHex string) (string, error) {
	insert := `
		INSERT INTO user_encryption_keys (user_id, encryption_salt)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, insert, userID, saltHex); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	persisted, err := r.Find(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read back salt: %w", err)
	}
	return persisted, nil
}
