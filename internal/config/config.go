package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port            string
	AccountsFile    string
	StorageBackend  string
	DatabaseURL     string
	LogLevel        slog.Level
	LogFormat       string
	DevSeed         bool
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "8080"),
		AccountsFile:   fallback(os.Getenv("ACCOUNTS_FILE"), "data/accounts.json"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorageBackend: strings.ToLower(fallback(os.Getenv("STORAGE_BACKEND"), "file")),
		LogLevel:       ParseLogLevel(os.Getenv("LOG_LEVEL")),
		LogFormat:      strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "json")),
		DevSeed:        parseBool(os.Getenv("DEV_SEED")),
	}

	seconds := fallback(os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"), "10")
	if n, err := strconv.Atoi(seconds); err == nil && n > 0 {
		cfg.ShutdownTimeout = time.Duration(n) * time.Second
	} else {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.StorageBackend != "file" && cfg.StorageBackend != "memory" {
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be file or memory, got %q", cfg.StorageBackend)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, errors.New("PORT must be numeric")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ParseLogLevel maps env values to a slog level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
