// diaryctl is the operator tool for diaryvault: legacy-entry encryption,
// salt inspection, backups and PIN resets, run directly against the
// configured backends.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/salt"
	"github.com/avolkov/diaryvault/internal/server/config"
	"github.com/avolkov/diaryvault/internal/server/services"
	"github.com/avolkov/diaryvault/internal/server/shared/db"
	"github.com/avolkov/diaryvault/internal/streak"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "diaryctl",
		Short:         "Administrative tool for the diaryvault backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(encryptLegacyCmd)
	rootCmd.AddCommand(saltCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(pinCmd)
}

// toolkit wires the same components the server runs, for one-shot use.
type toolkit struct {
	cfg     *config.Config
	logger  logging.Logger
	manager db.RepositoryManager
	local   *salt.BoltStore
	salts   *salt.Store
	diary   *services.DiaryService
	pins    *services.PinService
	backup  *services.BackupService
}

func newToolkit(ctx context.Context) (*toolkit, error) {
	var handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	if verbose {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	logger := logging.NewSlogLogger(slog.New(handler))

	cfg := config.LoadEnvConfig()

	manager, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The cache must be the real one: migrations and PIN resets have to
	// evict what the server cached.
	var cache cachex.Cache = cachex.NewNoop()
	if cfg.RedisAddr != "" {
		cache, err = cachex.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("cache init error: %w", err)
		}
	}

	t := &toolkit{cfg: cfg, logger: logger, manager: manager}

	var local salt.LocalStore
	if cfg.LocalSaltDBPath != "" {
		bolt, err := salt.OpenBoltStore(cfg.LocalSaltDBPath)
		if err != nil {
			return nil, fmt.Errorf("local salt store init error: %w", err)
		}
		t.local = bolt
		local = bolt
	}

	t.salts = salt.NewStore(cache, manager.Salts(), local, logger)
	box := cryptox.NewCipherBox(t.salts)
	streaks := streak.NewEngine(manager.Entries(), cache, logger)
	t.diary = services.NewDiaryService(manager.Entries(), box, streaks, cache, logger)
	t.pins = services.NewPinService(manager.Settings())
	t.backup = services.NewBackupService(manager.Entries(), cfg)

	return t, nil
}

func (t *toolkit) Close() {
	if t.local != nil {
		_ = t.local.Close()
	}
	_ = t.manager.Close()
}
