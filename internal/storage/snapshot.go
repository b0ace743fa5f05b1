package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"pennywise/internal/core"
)

var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

// Snapshot serializes the whole ledger as one JSON array under a single key.
// It satisfies ledger.Store.
type Snapshot struct {
	kv  KV
	key string
}

func NewSnapshot(kv KV, key string) *Snapshot {
	if key == "" {
		key = DefaultKey
	}
	return &Snapshot{kv: kv, key: key}
}

// record is the stored shape of a transaction. Older snapshots carry numeric
// ids and no type.
type record struct {
	ID        recordID   `json:"id"`
	Name      string     `json:"name"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	Type      string     `json:"type,omitempty"`
	Date      core.Date  `json:"date"`
	Timestamp string     `json:"timestamp,omitempty"`
}

type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*id = recordID(b)
	return nil
}

// Load reads the snapshot. A missing key is an empty ledger.
func (s *Snapshot) Load(ctx context.Context) ([]core.Transaction, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []core.Transaction{}, nil
	}
	return Decode(raw)
}

// Save overwrites the snapshot with txs, in order.
func (s *Snapshot) Save(ctx context.Context, txs []core.Transaction) error {
	b, err := Encode(txs)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}

// Encode renders txs in the stored record format.
func Encode(txs []core.Transaction) ([]byte, error) {
	recs := make([]record, len(txs))
	for i, tx := range txs {
		recs[i] = record{
			ID:       recordID(tx.ID),
			Name:     tx.Description,
			Amount:   tx.Amount,
			Category: string(tx.Category),
			Type:     string(tx.Kind),
			Date:     tx.Date,
		}
		if !tx.CreatedAt.IsZero() {
			recs[i].Timestamp = tx.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses a stored snapshot. Unknown categories become Other and a
// missing or unknown type becomes Debit.
func Decode(raw []byte) ([]core.Transaction, error) {
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	txs := make([]core.Transaction, 0, len(recs))
	for i, r := range recs {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrCorruptSnapshot, i)
		}
		kind, err := core.ParseKind(r.Type)
		if err != nil {
			slog.Warn("Unknown transaction type in snapshot, treating as debit", "id", r.ID, "type", r.Type)
			kind = core.Debit
		}
		tx := core.Transaction{
			ID:          string(r.ID),
			Description: r.Name,
			Amount:      r.Amount,
			Kind:        kind,
			Category:    core.ParseCategory(r.Category),
			Date:        r.Date,
		}
		if r.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
				tx.CreatedAt = ts
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
