package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/omnidesk/mailsync/internal/blob"
	"github.com/omnidesk/mailsync/internal/config"
	"github.com/omnidesk/mailsync/internal/database"
	"github.com/omnidesk/mailsync/internal/ingest"
	"github.com/omnidesk/mailsync/internal/mailsync"
	"github.com/omnidesk/mailsync/internal/notify"
	"github.com/omnidesk/mailsync/internal/probe"
	"github.com/omnidesk/mailsync/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting mailsync service")

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Attachment blob storage
	blobs := blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL)

	// Notification webhook (optional)
	var notifier notify.Notifier = notify.Noop{}
	if cfg.NotifyEnabled() {
		notifier = notify.NewWebhook(cfg.NotifyWebhookURL, cfg.NotifyAPIKey)
		logger.Info("notification webhook enabled", "url", cfg.NotifyWebhookURL)
	}

	// Create components
	pipeline := ingest.New(db, blobs, logger)
	engine := mailsync.NewEngine(db, pipeline, notifier, logger, mailsync.Options{
		LockTTL:        cfg.SyncLockTTL,
		ResyncWindow:   cfg.ResyncWindow,
		FetchCap:       cfg.FetchCap,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	prober := probe.New()

	srv := server.New(cfg.ListenAddr, db, engine, prober, cfg.BlobDir, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		logger.Info("shutting down...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("mailsync stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
