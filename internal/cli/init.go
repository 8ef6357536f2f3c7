// Package cli provides common bootstrap utilities shared by cmd/expenza and
// cmd/expenza-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenza/internal/config"
	applog "expenza/internal/log"
	"expenza/internal/persist"
)

// SetupLogger initializes structured logging and installs it as the default.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are ignored
// silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting the
// process on failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenKV opens the SQLite key-value store, exiting the process on failure.
func OpenKV(logger *applog.Logger, dbPath string) *persist.SQLiteKV {
	kv, err := persist.NewSQLiteKV(dbPath)
	if err != nil {
		logger.Error("Failed to open key-value store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return kv
}

// SignalContext returns a context cancelled on SIGINT/SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()
	return ctx, cancel
}

// ShutdownTimeout is how long graceful shutdown may take before giving up.
const ShutdownTimeout = 30 * time.Second
