package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendRemote = "remote"
	BackendMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	AppEnv          string
	Debug           bool
	Version         string
	LogFormat       string
	DefaultLanguage string

	BotToken       string
	AdminChannelID int64
	RateLimit      int

	SentryDSN   string
	MetricsAddr string

	StoreBackend      string
	MongoDBURI        string
	MongoDBDatabase   string
	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	channelIDStr := getEnv("ADMIN_CHANNEL_ID", "")
	channelID, err := strconv.ParseInt(channelIDStr, 10, 64)
	if err != nil && channelIDStr != "" {
		return nil, fmt.Errorf("invalid ADMIN_CHANNEL_ID: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT", "20"))
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: must be a positive integer", getEnv("RATE_LIMIT", ""))
	}

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Debug:             debug,
		Version:           getEnv("VERSION", "dev"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "en"),
		BotToken:          getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminChannelID:    channelID,
		RateLimit:         rateLimit,
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
		StoreBackend:      getEnv("STORE_BACKEND", BackendRemote),
		MongoDBURI:        getEnv("MONGODB_URI", ""),
		MongoDBDatabase:   getEnv("MONGODB_DATABASE", ""),
		CouchbaseURL:      getEnv("COUCHBASE_URL", ""),
		CouchbaseUsername: getEnv("COUCHBASE_USERNAME", ""),
		CouchbasePassword: getEnv("COUCHBASE_PASSWORD", ""),
		CouchbaseBucket:   getEnv("COUCHBASE_BUCKET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SentryDSN == "" {
		log.Warn().Msg("SENTRY_DSN is not set. Error tracking disabled.")
	}
	return cfg, nil
}

// Validate checks that every variable required by the selected backend is present.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.AdminChannelID == 0 {
		return fmt.Errorf("ADMIN_CHANNEL_ID is required")
	}
	switch c.StoreBackend {
	case BackendMemory:
		return nil
	case BackendRemote:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: expected %q or %q", c.StoreBackend, BackendRemote, BackendMemory)
	}
	if c.MongoDBURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.MongoDBDatabase == "" {
		return fmt.Errorf("MONGODB_DATABASE is required")
	}
	if c.CouchbaseURL == "" {
		return fmt.Errorf("COUCHBASE_URL is required")
	}
	if c.CouchbaseBucket == "" {
		return fmt.Errorf("COUCHBASE_BUCKET is required")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
