package ledger

import (
	"context"
	"testing"
	"time"

	"pennywise/internal/core"
)

func day(y int, m time.Month, d int) core.Date { return core.NewDate(y, m, d) }

func TestMonthlyTotal(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 1000}, Date: day(2025, time.June, 3)},
		{ID: "2", Amount: core.Money{Cents: 2500}, Date: day(2025, time.May, 28)},
		{ID: "3", Amount: core.Money{Cents: 700}, Date: day(2025, time.June, 1)},
		{ID: "4", Amount: core.Money{Cents: 300}, Date: day(2025, time.July, 2)},
	}
	cases := []struct {
		ref  core.Date
		want int64
	}{
		// future dated records have no upper bound
		{day(2025, time.June, 15), 2000},
		{day(2025, time.May, 31), 4500},
		{day(2025, time.July, 1), 300},
		{day(2025, time.August, 1), 0},
	}
	for _, tc := range cases {
		if got := MonthlyTotal(txs, tc.ref).Cents; got != tc.want {
			t.Fatalf("MonthlyTotal(%s) = %d, want %d", tc.ref, got, tc.want)
		}
	}
}

func TestDailyAverage(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 3000}, Date: day(2025, time.February, 2)},
		{ID: "2", Amount: core.Money{Cents: 1000}, Date: day(2025, time.February, 20)},
	}
	cases := []struct {
		ref  core.Date
		want int64
	}{
		{day(2025, time.February, 1), 4000},
		{day(2025, time.February, 10), 400},
		{day(2025, time.February, 28), 143}, // 40.00 / 28 = 1.428...
		{day(2025, time.February, 3), 1333},
	}
	for _, tc := range cases {
		if got := DailyAverage(txs, tc.ref).Cents; got != tc.want {
			t.Fatalf("DailyAverage(%s) = %d, want %d", tc.ref, got, tc.want)
		}
	}
}

func TestTotalByCategoryFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		{Amount: core.Money{Cents: 500}, Category: core.Shopping},
		{Amount: core.Money{Cents: 250}, Category: core.Food},
		{Amount: core.Money{Cents: 250}, Category: core.Shopping},
	}
	got := TotalByCategory(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %+v", got)
	}
	if got[0].Category != core.Shopping || got[0].Amount.Cents != 750 || got[0].Share != 75 {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	if got[1].Category != core.Food || got[1].Name != "Food & Dining" || got[1].Share != 25 {
		t.Fatalf("unexpected second group %+v", got[1])
	}
	if TotalByCategory(nil) != nil {
		t.Fatalf("empty ledger should have no groups")
	}
}

func TestFilters(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Kind: core.Credit, Category: core.Other},
		{ID: "2", Kind: core.Debit, Category: core.Food},
		{ID: "3", Kind: core.Debit, Category: core.Other},
	}
	if got := FilterByKind(txs, core.Debit); len(got) != 2 || got[0].ID != "2" {
		t.Fatalf("FilterByKind = %+v", got)
	}
	if got := FilterByCategory(txs, core.Other); len(got) != 2 || got[1].ID != "3" {
		t.Fatalf("FilterByCategory = %+v", got)
	}
	if got := FilterByCategory(txs, core.Healthcare); got == nil || len(got) != 0 {
		t.Fatalf("empty filter should be an empty slice, got %#v", got)
	}
}

func TestSingleCoffeeScenario(t *testing.T) {
	l, _ := newTestLedger()
	if _, err := l.Add(context.Background(), input("Coffee", 450, core.Debit, core.Food, core.Date{})); err != nil {
		t.Fatal(err)
	}
	s, rev := l.Summary(l.Today())
	if s.Count != 1 || s.Total.String() != "4.50" || rev != 1 {
		t.Fatalf("summary %+v rev %d", s, rev)
	}
	if s.MonthlyTotal.Cents != 450 || s.DailyAverage.Cents != 30 { // 4.50 over 15 days
		t.Fatalf("monthly=%s daily=%s", s.MonthlyTotal, s.DailyAverage)
	}
	if s.Balance.Cents != -450 || s.TotalDebit.Cents != 450 || s.TotalCredit.Cents != 0 {
		t.Fatalf("kind totals: %+v", s)
	}
}

func TestSummaryOnEmptyLedger(t *testing.T) {
	s := Summarize(nil, day(2025, time.January, 31))
	if s.Count != 0 || s.Total.Cents != 0 || s.DailyAverage.Cents != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.ByCategory == nil {
		t.Fatalf("ByCategory should be an empty slice for JSON")
	}
}
