// Package cli provides the initialization shared by the pennywise binaries:
// environment loading, logging, configuration, ledger storage and the
// optional broker and spreadsheet clients.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennywise/internal/amqp"
	"pennywise/internal/backend"
	"pennywise/internal/config"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
	gsheet "pennywise/internal/sheets/google"
	"pennywise/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = cfg.SlogLevel()
	if cfg.LogFormat != "" {
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// validates the result. It exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenSnapshot opens the configured backend and returns the ledger snapshot
// stored in it. The returned cleanup closes the backend.
func OpenSnapshot(ctx context.Context, cfg *config.Config, logger *log.Logger) (*storage.Snapshot, backend.CleanupFunc, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	return res.Snapshot, res.Cleanup, nil
}

// OpenLedger loads the ledger from the configured backend. The returned
// cleanup closes the backend.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*ledger.Ledger, backend.CleanupFunc, error) {
	mode, err := ledger.ParseEditMode(cfg.EditMode)
	if err != nil {
		return nil, nil, err
	}
	snap, cleanup, err := OpenSnapshot(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	l, err := ledger.Open(ctx, snap, ledger.WithEditMode(mode))
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	logger.WithComponent(log.ComponentLedger).InfoContext(ctx, "Ledger loaded",
		log.FieldCount, l.Len(),
		"backend", cfg.DataBackend,
		"edit_mode", mode)
	return l, cleanup, nil
}

// AMQPConfig maps the broker settings of cfg.
func AMQPConfig(cfg *config.Config) amqp.Config {
	return amqp.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.AMQPExchange,
		NotifyQueue: cfg.AMQPNotifyQueue,
		ExportQueue: cfg.AMQPExportQueue,
	}
}

// SheetsCredentials maps the Google credential settings of cfg.
func SheetsCredentials(cfg *config.Config) gsheet.Credentials {
	return gsheet.Credentials{
		ServiceAccountFile: cfg.GoogleCredentialsFile,
		ServiceAccountJSON: cfg.GoogleCredentialsJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
	}
}

// NewSheetsExporter connects to the configured spreadsheet.
func NewSheetsExporter(ctx context.Context, cfg *config.Config) (*gsheet.Client, error) {
	if !cfg.SheetsEnabled() {
		return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
	}
	return gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, SheetsCredentials(cfg))
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
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

// ShutdownContext returns a fresh context bounded by timeout for draining
// work after the main context is cancelled.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
