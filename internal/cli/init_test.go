package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level not applied")
	}
	if slog.Default() != logger.Logger {
		t.Fatal("logger not installed as default")
	}
}

func TestOpenLedgerPersistsAcrossOpens(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := &config.Config{
		LogLevel:    "error",
		DataBackend: "file",
		DataDir:     filepath.Join(t.TempDir(), "data"),
		LedgerKey:   "expenses",
		EditMode:    "in_place",
	}
	logger := SetupLogger(cfg)
	ctx := context.Background()

	l, cleanup, err := OpenLedger(ctx, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if l.EditMode() != ledger.EditInPlace {
		t.Fatalf("edit mode = %s", l.EditMode())
	}
	tx, err := l.Add(ctx, core.TransactionInput{Description: "Rent", Amount: core.Money{Cents: 100000}, Category: core.Utilities})
	if err != nil {
		t.Fatal(err)
	}
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}

	reopened, cleanup, err := OpenLedger(ctx, cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if got, ok := reopened.Get(tx.ID); !ok || got.Description != "Rent" {
		t.Fatalf("record not persisted: %+v %v", got, ok)
	}
}

func TestOpenLedgerRejectsBadSettings(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "error"})
	ctx := context.Background()

	if _, _, err := OpenLedger(ctx, &config.Config{DataBackend: "memory", EditMode: "merge"}, logger); err == nil {
		t.Fatal("expected edit mode error")
	}
	if _, _, err := OpenLedger(ctx, &config.Config{DataBackend: "sheets"}, logger); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestSettingsMapping(t *testing.T) {
	cfg := &config.Config{
		AMQPURL:               "amqp://localhost:5672/",
		AMQPExchange:          "pennywise",
		AMQPNotifyQueue:       "notifications",
		AMQPExportQueue:       "exports",
		GoogleOAuthClientJSON: "{}",
		GoogleOAuthTokenFile:  "token.json",
	}
	ac := AMQPConfig(cfg)
	if ac.URL != cfg.AMQPURL || ac.Exchange != "pennywise" || ac.NotifyQueue != "notifications" || ac.ExportQueue != "exports" {
		t.Fatalf("amqp config = %+v", ac)
	}
	creds := SheetsCredentials(cfg)
	if creds.OAuthClientJSON != "{}" || creds.OAuthTokenFile != "token.json" || creds.ServiceAccountFile != "" {
		t.Fatalf("credentials = %+v", creds)
	}
	if _, err := NewSheetsExporter(context.Background(), cfg); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}
