package worker

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	"pennywise/internal/sheets"
)

// TargetSheets is the only export target the worker serves.
const TargetSheets = "sheets"

// SnapshotReader reads the persisted ledger. The worker never writes it.
type SnapshotReader interface {
	Load(ctx context.Context) ([]core.Transaction, error)
}

// ExportWorker turns export requests from the queue into spreadsheet exports.
type ExportWorker struct {
	snapshot SnapshotReader
	sheets   sheets.Exporter
}

func NewExportWorker(snapshot SnapshotReader, exporter sheets.Exporter) *ExportWorker {
	return &ExportWorker{snapshot: snapshot, sheets: exporter}
}

// HandleExportRequest processes a single export request from AMQP. A failed
// load or export is returned so the message is redelivered.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	slog.InfoContext(ctx, "Processing export request",
		"id", msg.ID,
		"target", msg.Target,
		"reference_date", msg.ReferenceDate.String())

	if msg.Target != TargetSheets {
		slog.WarnContext(ctx, "Unsupported export target, dropping request", "id", msg.ID, "target", msg.Target)
		return nil
	}

	txs, err := w.snapshot.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger snapshot: %w", err)
	}
	if len(txs) == 0 {
		slog.InfoContext(ctx, "Ledger is empty, nothing to export", "id", msg.ID)
		return nil
	}

	ref, err := w.sheets.Export(ctx, txs)
	if err != nil {
		return fmt.Errorf("export to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported ledger",
		"id", msg.ID,
		"sheets_ref", ref,
		"count", len(txs))
	return nil
}
