// Package cli provides common CLI initialization utilities.
// This package consolidates the start-up and shutdown steps shared by
// cmd/budgetdesk, cmd/budgetdesk-worker, cmd/billing-worker and cmd/budgetctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/config"
	"budgetdesk/internal/log"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error; production reads the real environment.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// SetupLogger builds the logger described by LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.ConfigFromEnv("info", "text", component)
	if cfg != nil {
		lc = log.ConfigFromEnv(cfg.LogLevel, cfg.LogFormat, component)
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger.WithComponent(component)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	if err := LoadEnvFile(); err != nil {
		SetupLogger(nil, component).Warn("Ignoring .env file", log.FieldError, err.Error())
	}
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend opens the configured store and integrations. memoryLedger lets
// workers run against an in-memory ledger when no spreadsheet is configured.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, memoryLedger bool) (*backend.BackendResult, backend.Config, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, backend.Config{}, err
	}
	bc.MemoryLedger = memoryLedger && !cfg.LedgerEnabled()

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, backend.Config{}, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}
	logger.Info("Backend ready",
		"backend", string(bc.Type),
		"broker", res.Broker != nil,
		"ledger", res.Ledger != nil)
	return res, bc, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// signal is logged once.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdown runs stop with a fresh context bounded by timeout and logs the
// outcome.
func Shutdown(logger *log.Logger, timeout time.Duration, stop func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := stop(ctx); err != nil {
		logger.Error("Shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err.Error())
		return
	}
	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
}
