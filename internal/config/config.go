package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage
	DatabaseURL string // Postgres; when empty, SQLite is used
	SQLitePath  string
	BlobDir     string

	// Relay tuning
	HistoryLimit     int           // records returned by a cursorless history request
	QueueLimit       int           // offline queue entries per agent, 0 = unbounded
	HandshakeTimeout time.Duration // wait for HELLO, 0 = no deadline
	WriteTimeout     time.Duration // per outbound frame
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/relay.db"),
		BlobDir:          getEnv("BLOB_DIR", "./data/files"),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 100),
		QueueLimit:       getEnvInt("QUEUE_LIMIT", 1000),
		HandshakeTimeout: getEnvDuration("HANDSHAKE_TIMEOUT", 10*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
