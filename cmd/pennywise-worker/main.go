package main

import (
	"os"

	"pennywise/internal/amqp"
	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/log"
	"pennywise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting pennywise-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	snapshot, closeStore, err := cli.OpenSnapshot(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger storage", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeStore()

	exporter, err := cli.NewSheetsExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(ctx, cli.AMQPConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(snapshot, exporter)
	if err := client.ConsumeExportRequests(ctx, w.HandleExportRequest); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
