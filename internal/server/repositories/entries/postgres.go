// Package entries provides the PostgreSQL-backed repository for diary entry
// rows.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/diaryvault/internal/common"
	"github.com/avolkov/diaryvault/internal/dbx"
	"github.com/avolkov/diaryvault/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates or replaces the entry for (user_id, entry_date). The unique
// constraint on that pair gives last-write-wins semantics under concurrent
// saves from two sessions.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO diary_entries (id, user_id, entry_date, content, word_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, entry_date)
		DO UPDATE SET
			content = EXCLUDED.content,
			word_count = EXCLUDED.word_count,
			updated_at = now();
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.EntryDate, entry.Content, entry.WordCount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the entry for the given user and date, or common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, userID, entryDate string) (*models.Entry, error) {
	query := `
		SELECT id, user_id, entry_date::text, content, word_count, created_at, updated_at
		FROM diary_entries
		WHERE user_id = $1 AND entry_date = $2
	`
	var e models.Entry
	err := r.db.QueryRowContext(ctx, query, userID, entryDate).Scan(
		&e.ID, &e.UserID, &e.EntryDate, &e.Content, &e.WordCount, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

// ListDates returns the distinct entry dates for a user, newest first.
func (r *PostgresRepository) ListDates(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT entry_date::text
		FROM diary_entries
		WHERE user_id = $1
		ORDER BY entry_date::text DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry dates: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAll returns every entry for a user, oldest first.
func (r *PostgresRepository) ListAll(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, entry_date::text, content, word_count, created_at, updated_at
		FROM diary_entries
		WHERE user_id = $1
		ORDER BY entry_date
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.EntryDate, &e.Content, &e.WordCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
