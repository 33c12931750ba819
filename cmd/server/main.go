package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fooddb/internal/config"
	"github.com/JonMunkholm/fooddb/internal/core"
	_ "github.com/JonMunkholm/fooddb/internal/core/formats" // Register spreadsheet formats
	"github.com/JonMunkholm/fooddb/internal/logging"
	"github.com/JonMunkholm/fooddb/internal/store"
	"github.com/JonMunkholm/fooddb/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	db := store.New(pool)
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		slog.Info("schema applied")
	}

	service := core.NewService(db, cfg.Derive)

	formats := service.ListFormats()
	keys := make([]string, len(formats))
	for i, f := range formats {
		keys[i] = f.Key
	}
	slog.Info("spreadsheet formats registered", "formats", keys, "default", cfg.Derive.DefaultFormat)

	server := web.NewServer(service, cfg)

	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Running derivations hold a transaction; let them commit.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for derivations to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("derivations did not complete in time", "error", err)
			} else {
				slog.Info("all derivations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-idle
	slog.Info("server stopped")
}
