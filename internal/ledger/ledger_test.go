package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"pennywise/internal/core"
)

type fakeStore struct {
	saved   [][]core.Transaction
	loaded  []core.Transaction
	saveErr error
}

func (f *fakeStore) Load(context.Context) ([]core.Transaction, error) {
	return f.loaded, nil
}

func (f *fakeStore) Save(_ context.Context, txs []core.Transaction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := make([]core.Transaction, len(txs))
	copy(cp, txs)
	f.saved = append(f.saved, cp)
	return nil
}

func seqIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("tx-%d", n), nil
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var june15 = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func newTestLedger(opts ...Option) (*Ledger, *fakeStore) {
	fs := &fakeStore{}
	base := []Option{WithStore(fs), WithClock(fixedClock(june15)), WithIDGenerator(seqIDs())}
	return New(append(base, opts...)...), fs
}

func input(desc string, cents int64, kind core.Kind, cat core.Category, date core.Date) core.TransactionInput {
	return core.TransactionInput{Description: desc, Amount: core.Money{Cents: cents}, Kind: kind, Category: cat, Date: date}
}

func TestAddThenGet(t *testing.T) {
	l, fs := newTestLedger()
	ctx := context.Background()

	tx, err := l.Add(ctx, input("Coffee", 450, core.Debit, core.Food, core.NewDate(2025, time.June, 14)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	got, ok := l.Get(tx.ID)
	if !ok {
		t.Fatalf("added record %s not found", tx.ID)
	}
	if got != tx {
		t.Fatalf("got %+v, want %+v", got, tx)
	}
	if !got.CreatedAt.Equal(june15) {
		t.Fatalf("createdAt = %v", got.CreatedAt)
	}
	if l.Len() != 1 || l.TotalAmount().String() != "4.50" {
		t.Fatalf("len=%d total=%s", l.Len(), l.TotalAmount())
	}
	if len(fs.saved) != 1 || len(fs.saved[0]) != 1 {
		t.Fatalf("expected one save with one record, got %v", fs.saved)
	}
	if l.Revision() != 1 {
		t.Fatalf("revision = %d", l.Revision())
	}
}

func TestAddDefaultsDateToToday(t *testing.T) {
	l, _ := newTestLedger()
	tx, err := l.Add(context.Background(), core.TransactionInput{Description: "Bus", Amount: core.Money{Cents: 250}})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Date.String() != "2025-06-15" {
		t.Fatalf("date = %s", tx.Date)
	}
	if tx.Kind != core.Debit || tx.Category != core.Other {
		t.Fatalf("defaults: kind=%s category=%s", tx.Kind, tx.Category)
	}
}

func TestAddInvalidLeavesLedgerUnchanged(t *testing.T) {
	l, fs := newTestLedger()
	ctx := context.Background()
	if _, err := l.Add(ctx, input("Rent", 100000, core.Debit, core.Utilities, core.Date{})); err != nil {
		t.Fatal(err)
	}

	bads := []core.TransactionInput{
		input("", 100, core.Debit, core.Food, core.Date{}),
		input("   ", 100, core.Debit, core.Food, core.Date{}),
		input("Gift", 0, core.Credit, core.Other, core.Date{}),
		input("Gift", -300, core.Credit, core.Other, core.Date{}),
		input("Swap", 300, core.Kind("barter"), core.Other, core.Date{}),
	}
	for i, in := range bads {
		_, err := l.Add(ctx, in)
		if !core.IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
		if l.Len() != 1 {
			t.Fatalf("case %d: ledger length changed to %d", i, l.Len())
		}
	}
	if len(fs.saved) != 1 {
		t.Fatalf("invalid adds must not persist, saves=%d", len(fs.saved))
	}
}

func TestNewestFirst(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	for _, d := range []string{"a", "b", "c"} {
		if _, err := l.Add(ctx, input(d, 100, core.Debit, core.Other, core.Date{})); err != nil {
			t.Fatal(err)
		}
	}
	list := l.List()
	if list[0].Description != "c" || list[2].Description != "a" {
		t.Fatalf("unexpected order: %v", list)
	}
}

func TestRemove(t *testing.T) {
	l, fs := newTestLedger()
	ctx := context.Background()
	tx, _ := l.Add(ctx, input("Movie", 1200, core.Debit, core.Entertainment, core.Date{}))

	removed, err := l.Remove(ctx, tx.ID)
	if err != nil || !removed {
		t.Fatalf("remove: %v %v", removed, err)
	}
	if _, ok := l.Get(tx.ID); ok {
		t.Fatalf("record still present after remove")
	}

	saves := len(fs.saved)
	removed, err = l.Remove(ctx, "missing")
	if err != nil || removed {
		t.Fatalf("removing a missing id should be a silent no-op, got %v %v", removed, err)
	}
	if len(fs.saved) != saves {
		t.Fatalf("no-op remove persisted")
	}
}

func TestEditReplaceMovesToFront(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	first, _ := l.Add(ctx, input("Groceries", 3000, core.Debit, core.Food, core.Date{}))
	_, _ = l.Add(ctx, input("Taxi", 1500, core.Debit, core.Transportation, core.Date{}))

	edited, found, err := l.Edit(ctx, first.ID, input("Groceries", 3250, core.Debit, core.Food, core.Date{}))
	if err != nil || !found {
		t.Fatalf("edit: found=%v err=%v", found, err)
	}
	if edited.ID == first.ID {
		t.Fatalf("replace edit must assign a new id")
	}
	list := l.List()
	if list[0].ID != edited.ID || len(list) != 2 {
		t.Fatalf("edited record should be first: %+v", list)
	}
	if _, ok := l.Get(first.ID); ok {
		t.Fatalf("old id still present")
	}
	if l.TotalAmount().Cents != 4750 {
		t.Fatalf("total = %s", l.TotalAmount())
	}
}

func TestEditInPlaceKeepsIdentity(t *testing.T) {
	l, _ := newTestLedger(WithEditMode(EditInPlace))
	ctx := context.Background()
	first, _ := l.Add(ctx, input("Groceries", 3000, core.Debit, core.Food, core.Date{}))
	_, _ = l.Add(ctx, input("Taxi", 1500, core.Debit, core.Transportation, core.Date{}))

	edited, _, err := l.Edit(ctx, first.ID, input("Supermarket", 3100, core.Debit, core.Shopping, core.Date{}))
	if err != nil {
		t.Fatal(err)
	}
	if edited.ID != first.ID || !edited.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("in-place edit changed identity: %+v", edited)
	}
	list := l.List()
	if list[1].ID != first.ID || list[1].Description != "Supermarket" {
		t.Fatalf("in-place edit moved the record: %+v", list)
	}
}

func TestEditInvalidOrMissing(t *testing.T) {
	l, fs := newTestLedger()
	ctx := context.Background()
	tx, _ := l.Add(ctx, input("Book", 2000, core.Debit, core.Education, core.Date{}))

	if _, _, err := l.Edit(ctx, tx.ID, input("", 2000, core.Debit, core.Education, core.Date{})); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, ok := l.Get(tx.ID); !ok || got != tx {
		t.Fatalf("invalid edit must leave the record untouched")
	}

	_, found, err := l.Edit(ctx, "nope", input("Book", 1, core.Debit, core.Education, core.Date{}))
	if err != nil || found {
		t.Fatalf("editing a missing id should be a silent no-op, got found=%v err=%v", found, err)
	}
	if len(fs.saved) != 1 {
		t.Fatalf("saves = %d, want 1", len(fs.saved))
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	l, fs := newTestLedger()
	ctx := context.Background()
	tx, _ := l.Add(ctx, input("Lunch", 1200, core.Debit, core.Food, core.Date{}))

	fs.saveErr = errors.New("disk full")
	if _, err := l.Add(ctx, input("Dinner", 2500, core.Debit, core.Food, core.Date{})); err == nil {
		t.Fatalf("expected persist error")
	}
	if _, err := l.Remove(ctx, tx.ID); !errors.Is(err, fs.saveErr) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if _, _, err := l.Edit(ctx, tx.ID, input("Brunch", 1300, core.Debit, core.Food, core.Date{})); err == nil {
		t.Fatalf("expected persist error on edit")
	}
	list := l.List()
	if len(list) != 1 || list[0] != tx {
		t.Fatalf("ledger changed after failed writes: %+v", list)
	}
	if l.Revision() != 1 {
		t.Fatalf("revision moved on failed writes: %d", l.Revision())
	}
}

func TestDuplicateGeneratedID(t *testing.T) {
	l, _ := newTestLedger(WithIDGenerator(func() (string, error) { return "same", nil }))
	ctx := context.Background()
	if _, err := l.Add(ctx, input("a", 1, core.Debit, core.Other, core.Date{})); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Add(ctx, input("b", 1, core.Debit, core.Other, core.Date{})); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestOpenLoadsAndDedupes(t *testing.T) {
	d := core.NewDate(2025, time.June, 1)
	fs := &fakeStore{loaded: []core.Transaction{
		{ID: "b", Description: "second", Amount: core.Money{Cents: 200}, Kind: core.Debit, Category: core.Food, Date: d},
		{ID: "a", Description: "first", Amount: core.Money{Cents: 100}, Kind: core.Debit, Category: core.Food, Date: d},
		{ID: "b", Description: "dup", Amount: core.Money{Cents: 999}, Kind: core.Debit, Category: core.Food, Date: d},
	}}
	l, err := Open(context.Background(), fs)
	if err != nil {
		t.Fatal(err)
	}
	list := l.List()
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("unexpected load result: %+v", list)
	}
}

func TestOpenSkipsInvalidRecords(t *testing.T) {
	d := core.NewDate(2025, time.June, 1)
	valid := core.Transaction{ID: "ok", Description: "Rent", Amount: core.Money{Cents: 90000}, Kind: core.Debit, Category: core.Utilities, Date: d}
	fs := &fakeStore{loaded: []core.Transaction{
		{ID: "blank", Description: "  ", Amount: core.Money{Cents: 100}, Kind: core.Debit, Date: d},
		{ID: "zero", Description: "Zero", Amount: core.Money{}, Kind: core.Debit, Date: d},
		{ID: "negative", Description: "Refund", Amount: core.Money{Cents: -500}, Kind: core.Credit, Date: d},
		{ID: "huge", Description: "Huge", Amount: core.Money{Cents: core.MaxAmountCents + 1}, Kind: core.Credit, Date: d},
		{ID: "undated", Description: "Undated", Amount: core.Money{Cents: 100}, Kind: core.Debit},
		{ID: "", Description: "No id", Amount: core.Money{Cents: 100}, Kind: core.Debit, Date: d},
		valid,
		{ID: "zero", Description: "Zero fixed", Amount: core.Money{Cents: 50}, Kind: core.Debit, Category: core.Food, Date: d},
	}}
	l, err := Open(context.Background(), fs)
	if err != nil {
		t.Fatal(err)
	}
	list := l.List()
	if len(list) != 2 || list[0].ID != "ok" || list[1].ID != "zero" || list[1].Description != "Zero fixed" {
		t.Fatalf("unexpected load result: %+v", list)
	}
	if got := l.Balance(); got.Cents != -90050 {
		t.Fatalf("balance = %d", got.Cents)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	l := New()
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tx, err := l.Add(ctx, input("x", 1, core.Debit, core.Other, core.Date{}))
		if err != nil {
			t.Fatal(err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestParseEditMode(t *testing.T) {
	cases := []struct {
		in   string
		want EditMode
		ok   bool
	}{
		{"", EditReplace, true},
		{"replace", EditReplace, true},
		{"in_place", EditInPlace, true},
		{"In-Place", EditInPlace, true},
		{"merge", "", false},
	}
	for _, tc := range cases {
		got, err := ParseEditMode(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("ParseEditMode(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestTotalsOnRandomLedgers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := core.Categories()
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		l, _ := newTestLedger()
		var want, credit, debit int64
		n := rng.Intn(40)
		for i := 0; i < n; i++ {
			cents := rng.Int63n(100000) + 1
			kind := core.Debit
			if rng.Intn(3) == 0 {
				kind = core.Credit
				credit += cents
			} else {
				debit += cents
			}
			want += cents
			cat := cats[rng.Intn(len(cats))]
			if _, err := l.Add(ctx, input("item", cents, kind, cat, core.Date{})); err != nil {
				t.Fatal(err)
			}
		}

		if got := l.TotalAmount().Cents; got != want {
			t.Fatalf("round %d: total %d, want %d", round, got, want)
		}
		var byCat int64
		for _, ca := range l.TotalByCategory() {
			byCat += ca.Amount.Cents
		}
		if byCat != want {
			t.Fatalf("round %d: category totals %d, want %d", round, byCat, want)
		}
		if got := l.Balance().Cents; got != credit-debit {
			t.Fatalf("round %d: balance %d, want %d", round, got, credit-debit)
		}
		if l.Balance() != l.TotalByKind(core.Credit).Sub(l.TotalByKind(core.Debit)) {
			t.Fatalf("round %d: balance differs from credit minus debit", round)
		}
	}
}
