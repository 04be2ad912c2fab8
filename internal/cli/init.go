// Package cli holds the start-up steps shared by the binaries under cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tesoretto/internal/backend"
	"tesoretto/internal/config"
	applog "tesoretto/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored; the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads and validates configuration and installs the default
// logger for component. Any failure exits the process.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()

	cfg := config.Load()
	logger, err := NewLogger(cfg, component)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting",
		applog.FieldOperation, applog.OpStartup,
		"backend", cfg.DataBackend,
		"log_level", cfg.LogLevel)
	return cfg, logger
}

// NewLogger builds a logger at the configured level.
func NewLogger(cfg *config.Config, component string) (*applog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return applog.New(applog.Config{Level: level, Component: component}), nil
}

// OpenBackend creates the configured data backend. When withEvents is false
// no publisher is attached even if AMQP is configured. Exits on failure.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config, withEvents bool) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if !withEvents {
		backendCfg.AMQPURL = ""
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend selected, data is lost on exit")
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err, "type", backendCfg.Type)
		os.Exit(1)
	}
	logger.Info("Backend ready",
		"type", backendCfg.Type,
		"events", result.Publisher != nil)
	return result
}

// NotifyShutdown returns a context cancelled on SIGINT or SIGTERM.
func NotifyShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received",
				applog.FieldOperation, applog.OpShutdown,
				"signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
