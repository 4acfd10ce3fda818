package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// HTTP
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/mailsync.db"`

	// Sync engine
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	SyncLockTTL     time.Duration `env:"SYNC_LOCK_TTL" envDefault:"15m"`
	ResyncWindow    time.Duration `env:"RESYNC_WINDOW" envDefault:"168h"` // 7 days
	FetchCap        int           `env:"FETCH_CAP" envDefault:"100"`

	// Blob storage for attachments
	BlobDir     string `env:"BLOB_DIR" envDefault:"./data/blobs"`
	BlobBaseURL string `env:"BLOB_BASE_URL" envDefault:"http://localhost:8080/blobs"`

	// Notification webhook (optional)
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyAPIKey     string `env:"NOTIFY_API_KEY"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// NotifyEnabled returns true if the notification webhook is configured
func (c *Config) NotifyEnabled() bool {
	return c.NotifyWebhookURL != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.FetchCap < 1 {
		return nil, fmt.Errorf("FETCH_CAP must be positive, got %d", cfg.FetchCap)
	}

	return cfg, nil
}
