package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avolkov/diaryvault/internal/server/migrations"
	"github.com/avolkov/diaryvault/internal/server/repositories/entries"
	"github.com/avolkov/diaryvault/internal/server/repositories/salts"
	"github.com/avolkov/diaryvault/internal/server/repositories/settings"
)

type PostgresRepositoryManager struct {
	db       *sql.DB
	entries  entries.Repository
	salts    salts.Repository
	settings settings.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *PostgresRepositoryManager) Entries() entries.Repository {
	return m.entries
}

func (m *PostgresRepositoryManager) Salts() salts.Repository {
	return m.salts
}

func (m *PostgresRepositoryManager) Settings() settings.Repository {
	return m.settings
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:       db,
		entries:  entries.NewPostgresRepository(db),
		salts:    salts.NewPostgresRepository(db),
		settings: settings.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
