package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"armkala-backend/internal/api"
	"armkala-backend/internal/backup"
	"armkala-backend/internal/config"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	serverhttp "armkala-backend/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create data dir")
	}

	app, err := config.LoadAppConfig(cfg.AppConfigPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("load app config")
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("open ledger")
	}
	defer store.Close()
	if err := store.SeedDefaultAdmin("admin", "admin"); err != nil {
		logger.Fatal().Err(err).Msg("seed default admin")
	}

	invStore := inventory.NewStore(app.InventoryFile())
	if invStore.Path() != "" {
		if _, err := invStore.Reload(); err != nil {
			logger.Warn().Err(err).Str("path", invStore.Path()).Msg("inventory file not loaded")
		}
	}

	a := &api.API{
		Cfg:       cfg,
		App:       app,
		Log:       logger,
		Inventory: invStore,
		Ledger:    store,
		Comp:      &ledger.Compensator{Ledger: store, Inventory: invStore, Log: logger},
	}
	a.Notifier = backup.NewNotifier(func(reasons []string, username string) {
		if sender := a.Sender(); sender != nil {
			sender.Notify(reasons, username)
		}
	})

	r := serverhttp.NewRouter(cfg, logger, a)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
