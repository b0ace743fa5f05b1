// Package ledger holds the ordered transaction ledger and its derived totals.
//
// A Ledger keeps records newest first. Every successful mutation is written
// through to the configured Store before it becomes visible, so a failed write
// leaves the ledger exactly as it was.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/core"
)

// Store persists the whole ledger as one ordered snapshot.
type Store interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Save(ctx context.Context, txs []core.Transaction) error
}

// EditMode selects how Edit treats the record it changes.
type EditMode string

const (
	// EditReplace removes the record and adds a new one: fresh id, front of
	// the ledger.
	EditReplace EditMode = "replace"
	// EditInPlace keeps id, position and creation time.
	EditInPlace EditMode = "in_place"
)

var ErrDuplicateID = errors.New("duplicate transaction id")

// ParseEditMode maps a configuration value to an EditMode.
func ParseEditMode(s string) (EditMode, error) {
	switch EditMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EditReplace:
		return EditReplace, nil
	case EditInPlace, "in-place", "inplace":
		return EditInPlace, nil
	}
	return "", fmt.Errorf("unknown edit mode %q", s)
}

type Ledger struct {
	mu       sync.RWMutex
	items    []core.Transaction
	revision uint64

	store    Store
	now      func() time.Time
	newID    func() (string, error)
	editMode EditMode
}

type Option func(*Ledger)

// WithStore persists every mutation to s.
func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

// WithClock overrides time.Now for creation timestamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the UUIDv7 id source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(l *Ledger) { l.newID = fn }
}

func WithEditMode(m EditMode) Option {
	return func(l *Ledger) { l.editMode = m }
}

// New returns an empty ledger. Without WithStore nothing is persisted.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:      time.Now,
		newID:    newUUID,
		editMode: EditReplace,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a ledger backed by store and loads its snapshot once.
// Records Add would refuse, and records repeating an earlier id, are dropped
// with a warning.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := New(append(opts, WithStore(store))...)
	txs, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	seen := make(map[string]struct{}, len(txs))
	l.items = make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if err := checkLoaded(tx); err != nil {
			slog.WarnContext(ctx, "Dropping invalid transaction on load", "id", tx.ID, "error", err)
			continue
		}
		if _, dup := seen[tx.ID]; dup {
			slog.WarnContext(ctx, "Dropping duplicate transaction on load", "id", tx.ID)
			continue
		}
		seen[tx.ID] = struct{}{}
		l.items = append(l.items, tx)
	}
	slog.InfoContext(ctx, "Ledger loaded", "transactions", len(l.items))
	return l, nil
}

// checkLoaded applies the rules of Add to a stored record. A missing date is
// an error here, not a default.
func checkLoaded(tx core.Transaction) error {
	if tx.ID == "" {
		return errors.New("empty id")
	}
	if tx.Date.IsZero() {
		return &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
	}
	_, err := tx.Input().Normalize(tx.Date)
	return err
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Add validates in, assigns an id and creation time and puts the record at
// the front of the ledger.
func (l *Ledger) Add(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	norm, err := in.Normalize(core.DateOf(now))
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := l.newRecord(norm, now)
	if err != nil {
		return core.Transaction{}, err
	}

	next := make([]core.Transaction, 0, len(l.items)+1)
	next = append(next, tx)
	next = append(next, l.items...)
	if err := l.commit(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction added", "id", tx.ID, "amount", tx.Amount.String(), "kind", tx.Kind, "category", tx.Category)
	return tx, nil
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op and reports false.
func (l *Ledger) Remove(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	if err := l.commit(ctx, without(l.items, idx)); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "Transaction removed", "id", id)
	return true, nil
}

// Edit replaces the record with the given id. The new fields are validated
// before anything is removed. In EditReplace mode the result carries a new id
// and moves to the front; in EditInPlace mode it keeps id, position and
// creation time. An unknown id is a no-op and reports false.
func (l *Ledger) Edit(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, false, nil
	}
	now := l.now()
	norm, err := in.Normalize(core.DateOf(now))
	if err != nil {
		return core.Transaction{}, true, err
	}

	var (
		tx   core.Transaction
		next []core.Transaction
	)
	switch l.editMode {
	case EditInPlace:
		old := l.items[idx]
		tx = core.Transaction{
			ID:          old.ID,
			Description: norm.Description,
			Amount:      norm.Amount,
			Kind:        norm.Kind,
			Category:    norm.Category,
			Date:        norm.Date,
			CreatedAt:   old.CreatedAt,
		}
		next = make([]core.Transaction, len(l.items))
		copy(next, l.items)
		next[idx] = tx
	default:
		rest := without(l.items, idx)
		tx, err = l.newRecordAmong(norm, now, rest)
		if err != nil {
			return core.Transaction{}, true, err
		}
		next = make([]core.Transaction, 0, len(rest)+1)
		next = append(next, tx)
		next = append(next, rest...)
	}

	if err := l.commit(ctx, next); err != nil {
		return core.Transaction{}, true, err
	}
	slog.InfoContext(ctx, "Transaction edited", "old_id", id, "id", tx.ID, "mode", l.editMode)
	return tx, true, nil
}

// Get looks a record up by id.
func (l *Ledger) Get(id string) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx := l.indexOf(id); idx >= 0 {
		return l.items[idx], true
	}
	return core.Transaction{}, false
}

// List returns a copy of the records, newest first.
func (l *Ledger) List() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.Transaction, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Revision increases by one on every successful mutation.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// EditMode reports the mode Edit runs in.
func (l *Ledger) EditMode() EditMode {
	return l.editMode
}

// Today is the current calendar day according to the ledger clock.
func (l *Ledger) Today() core.Date {
	return core.DateOf(l.now())
}

func (l *Ledger) newRecord(in core.TransactionInput, now time.Time) (core.Transaction, error) {
	return l.newRecordAmong(in, now, l.items)
}

func (l *Ledger) newRecordAmong(in core.TransactionInput, now time.Time, existing []core.Transaction) (core.Transaction, error) {
	id, err := l.newID()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("generate transaction id: %w", err)
	}
	for _, tx := range existing {
		if tx.ID == id {
			return core.Transaction{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}
	return core.Transaction{
		ID:          id,
		Description: in.Description,
		Amount:      in.Amount,
		Kind:        in.Kind,
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   now.UTC(),
	}, nil
}

// commit persists next and only then makes it the current state.
// Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, next []core.Transaction) error {
	if l.store != nil {
		if err := l.store.Save(ctx, next); err != nil {
			slog.ErrorContext(ctx, "Failed to persist ledger", "error", err)
			return fmt.Errorf("persist ledger: %w", err)
		}
	}
	l.items = next
	l.revision++
	return nil
}

func (l *Ledger) indexOf(id string) int {
	for i, tx := range l.items {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func without(txs []core.Transaction, idx int) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs)-1)
	out = append(out, txs[:idx]...)
	return append(out, txs[idx+1:]...)
}
