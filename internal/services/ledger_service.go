// Package services wires the ledger to the user facing ports: notifications,
// confirmations, exports and the export job queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
	"pennywise/internal/notify"
)

const (
	MsgAdded           = "Expense added successfully!"
	MsgUpdated         = "Expense updated successfully!"
	MsgDeleted         = "Expense deleted successfully!"
	MsgConfirmDelete   = "Are you sure you want to delete this expense?"
	MsgNothingToExport = "No expenses to export"
	MsgExportQueued    = "Export to Google Sheets queued"
)

// ExportTargetSheets names the Google Sheets export job.
const ExportTargetSheets = "sheets"

var ErrExportUnavailable = errors.New("export queue not configured")

// ExportRequester hands an export job to a background worker.
type ExportRequester interface {
	RequestExport(ctx context.Context, target string, reference core.Date) error
}

// DeleteOutcome says what a delete request ended up doing.
type DeleteOutcome string

const (
	Deleted  DeleteOutcome = "deleted"
	Declined DeleteOutcome = "declined"
	NotFound DeleteOutcome = "not_found"
)

// LedgerService orchestrates ledger mutations with notifications and
// confirmations. Notification failures are logged, never returned.
type LedgerService struct {
	ledger   *ledger.Ledger
	notifier notify.Notifier
	confirm  notify.Confirmer
	exports  ExportRequester
	logger   *log.Logger
}

// NewLedgerService builds a service around l. A nil notifier logs, a nil
// confirmer always agrees and a nil exports disables queued exports.
func NewLedgerService(l *ledger.Ledger, notifier notify.Notifier, confirm notify.Confirmer, exports ExportRequester, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger.Logger}
	}
	if confirm == nil {
		confirm = notify.AlwaysConfirm
	}
	return &LedgerService{
		ledger:   l,
		notifier: notifier,
		confirm:  confirm,
		exports:  exports,
		logger:   logger,
	}
}

func (s *LedgerService) Ledger() *ledger.Ledger {
	return s.ledger
}

// Add records a new transaction.
func (s *LedgerService) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx, err := s.ledger.Add(ctx, in)
	if err != nil {
		s.notifyError(ctx, err)
		return core.Transaction{}, err
	}
	s.notify(ctx, notify.LevelSuccess, MsgAdded, tx.ID)
	return tx, nil
}

// Edit replaces a transaction without asking for confirmation. found is
// false when id does not exist.
func (s *LedgerService) Edit(ctx context.Context, id string, in core.TransactionInput) (tx core.Transaction, found bool, err error) {
	tx, found, err = s.ledger.Edit(ctx, id, in)
	if err != nil {
		s.notifyError(ctx, err)
		return core.Transaction{}, found, err
	}
	if found {
		s.notify(ctx, notify.LevelSuccess, MsgUpdated, tx.ID)
	}
	return tx, found, nil
}

// Delete asks the confirmer first, then removes id. Unknown ids are not
// reported to the user.
func (s *LedgerService) Delete(ctx context.Context, id string) (DeleteOutcome, error) {
	ok, err := s.confirm.Confirm(ctx, MsgConfirmDelete)
	if err != nil {
		return Declined, fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "Delete declined", log.FieldTransactionID, id)
		return Declined, nil
	}

	removed, err := s.ledger.Remove(ctx, id)
	if err != nil {
		s.notifyError(ctx, err)
		return NotFound, err
	}
	if !removed {
		return NotFound, nil
	}
	s.notify(ctx, notify.LevelSuccess, MsgDeleted, id)
	return Deleted, nil
}

// Export writes the whole ledger to w in format f.
func (s *LedgerService) Export(ctx context.Context, f export.Format, w io.Writer) error {
	txs := s.ledger.List()
	if len(txs) == 0 {
		s.notify(ctx, notify.LevelError, MsgNothingToExport, "")
		return export.ErrNothingToExport
	}
	if err := export.Write(w, f, txs); err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	s.logger.InfoContext(ctx, "Ledger exported", log.FieldFormat, f, log.FieldCount, len(txs))
	return nil
}

// RequestSheetsExport queues a Google Sheets export of the current ledger.
func (s *LedgerService) RequestSheetsExport(ctx context.Context) error {
	if s.exports == nil {
		return ErrExportUnavailable
	}
	if s.ledger.Len() == 0 {
		s.notify(ctx, notify.LevelError, MsgNothingToExport, "")
		return export.ErrNothingToExport
	}
	if err := s.exports.RequestExport(ctx, ExportTargetSheets, s.ledger.Today()); err != nil {
		return fmt.Errorf("queue export: %w", err)
	}
	s.notify(ctx, notify.LevelInfo, MsgExportQueued, "")
	return nil
}

func (s *LedgerService) notifyError(ctx context.Context, err error) {
	s.notify(ctx, notify.LevelError, err.Error(), "")
}

func (s *LedgerService) notify(ctx context.Context, level notify.Level, msg, id string) {
	n := notify.Notification{Level: level, Message: msg, TransactionID: id, Timestamp: time.Now().UTC()}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver notification", log.FieldError, err, "message", msg)
	}
}
