// Package memory is an in-process sheets.Exporter for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pennywise/internal/core"
	"pennywise/internal/export"
)

type Store struct {
	mu      sync.Mutex
	rows    [][]string
	exports int
}

func New() *Store {
	return &Store{}
}

// Export keeps the header and rows the real adapter would write.
func (s *Store) Export(_ context.Context, txs []core.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", export.ErrNothingToExport
	}
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, append([]string(nil), export.Columns...))
	for _, tx := range txs {
		rows = append(rows, export.Row(tx))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.exports++
	return fmt.Sprintf("mem!A1:D%d", len(rows)), nil
}

// Rows returns a copy of the last export, header included.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Exports counts successful exports.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
