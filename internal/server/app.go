// Package server initializes and runs the diaryvault backend: storage,
// cache, crypto and streak components wired behind the HTTP API, with
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/diaryvault/internal/cachex"
	"github.com/avolkov/diaryvault/internal/cryptox"
	"github.com/avolkov/diaryvault/internal/logging"
	"github.com/avolkov/diaryvault/internal/salt"
	"github.com/avolkov/diaryvault/internal/server/config"
	"github.com/avolkov/diaryvault/internal/server/httpapi"
	"github.com/avolkov/diaryvault/internal/server/services"
	"github.com/avolkov/diaryvault/internal/server/shared/db"
	"github.com/avolkov/diaryvault/internal/streak"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager db.RepositoryManager
	local   *salt.BoltStore
	api     *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	manager, err := db.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cache, err := newCache(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	app := &App{config: cfg, logger: logger, manager: manager}

	// An optional bbolt file holds salts written by older deployments; the
	// salt store migrates them into Postgres on first touch.
	var local salt.LocalStore
	if cfg.LocalSaltDBPath != "" {
		bolt, err := salt.OpenBoltStore(cfg.LocalSaltDBPath)
		if err != nil {
			return nil, fmt.Errorf("local salt store init error: %w", err)
		}
		app.local = bolt
		local = bolt
	}

	saltStore := salt.NewStore(cache, manager.Salts(), local, logger)
	box := cryptox.NewCipherBox(saltStore)
	streaks := streak.NewEngine(manager.Entries(), cache, logger)
	diary := services.NewDiaryService(manager.Entries(), box, streaks, cache, logger)
	pins := services.NewPinService(manager.Settings())

	app.api = httpapi.NewServer(diary, pins, streaks, []byte(cfg.SecretKey), logger)

	return app, nil
}

func newCache(cfg *config.Config, logger logging.Logger) (cachex.Cache, error) {
	if cfg.RedisAddr == "" {
		logger.Info(context.Background(), "no redis configured, running without a cache")
		return cachex.NewNoop(), nil
	}
	return cachex.NewRedisCache(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server failed", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	if app.local != nil {
		if err := app.local.Close(); err != nil {
			app.logger.Error(ctx, "local salt store close error", "error", err)
		}
	}
	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
