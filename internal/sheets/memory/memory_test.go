package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/export"
)

func TestStoreExport(t *testing.T) {
	s := New()
	if _, err := s.Export(context.Background(), nil); !errors.Is(err, export.ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}

	txs := []core.Transaction{
		{ID: "1", Description: "Coffee", Amount: core.Money{Cents: 450}, Category: core.Food, Date: core.NewDate(2025, time.June, 15)},
		{ID: "2", Description: "Rent", Amount: core.Money{Cents: 100000}, Category: core.Utilities, Date: core.NewDate(2025, time.June, 1)},
	}
	ref, err := s.Export(context.Background(), txs)
	if err != nil || ref != "mem!A1:D3" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 3 || rows[0][0] != "Name" || rows[1][1] != "4.5" || rows[2][1] != "1000" {
		t.Fatalf("rows = %v", rows)
	}
	if s.Exports() != 1 {
		t.Fatalf("exports = %d", s.Exports())
	}
}
