package db

import (
	"context"
	"database/sql"

	"github.com/avolkov/diaryvault/internal/server/repositories/entries"
	"github.com/avolkov/diaryvault/internal/server/repositories/salts"
	"github.com/avolkov/diaryvault/internal/server/repositories/settings"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Close() error
	Entries() entries.Repository
	Salts() salts.Repository
	Settings() settings.Repository
}
