package ledger

import (
	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// The functions below derive totals from a slice of records so they can be
// used on data that never lived in a Ledger, such as an API listing.

// Total sums every amount regardless of kind.
func Total(txs []core.Transaction) core.Money {
	var sum core.Money
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

func TotalByKind(txs []core.Transaction, kind core.Kind) core.Money {
	var sum core.Money
	for _, tx := range txs {
		if tx.Kind == kind {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// Balance is credits minus debits. It can be negative.
func Balance(txs []core.Transaction) core.Money {
	return TotalByKind(txs, core.Credit).Sub(TotalByKind(txs, core.Debit))
}

// TotalByCategory groups amounts by category in the order each category is
// first met walking txs.
func TotalByCategory(txs []core.Transaction) []core.CategoryAmount {
	var out []core.CategoryAmount
	index := make(map[core.Category]int)
	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Category: tx.Category, Name: tx.Category.DisplayName()})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}

	total := Total(txs)
	for i := range out {
		out[i].Share = share(out[i].Amount, total)
	}
	return out
}

func share(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return decimal.NewFromInt(part.Cents).
		Div(decimal.NewFromInt(total.Cents)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}

// MonthlyTotal sums records dated on or after the first day of ref's month.
// Records dated after ref still count.
func MonthlyTotal(txs []core.Transaction, ref core.Date) core.Money {
	start := ref.FirstOfMonth()
	var sum core.Money
	for _, tx := range txs {
		if !tx.Date.Before(start.Time) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// DailyAverage divides MonthlyTotal by the days elapsed in ref's month,
// rounding to the cent.
func DailyAverage(txs []core.Transaction, ref core.Date) core.Money {
	days := min(ref.Day(), ref.DaysInMonth())
	if days <= 0 {
		return core.Money{}
	}
	avg := MonthlyTotal(txs, ref).Decimal().Div(decimal.NewFromInt(int64(days)))
	return core.MoneyFromDecimal(avg)
}

func FilterByCategory(txs []core.Transaction, c core.Category) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range txs {
		if tx.Category == c {
			out = append(out, tx)
		}
	}
	return out
}

func FilterByKind(txs []core.Transaction, k core.Kind) []core.Transaction {
	out := []core.Transaction{}
	for _, tx := range txs {
		if tx.Kind == k {
			out = append(out, tx)
		}
	}
	return out
}

// Summarize computes every dashboard figure for ref.
func Summarize(txs []core.Transaction, ref core.Date) core.Summary {
	byCategory := TotalByCategory(txs)
	if byCategory == nil {
		byCategory = []core.CategoryAmount{}
	}
	return core.Summary{
		ReferenceDate: ref,
		Count:         len(txs),
		Total:         Total(txs),
		MonthlyTotal:  MonthlyTotal(txs, ref),
		DailyAverage:  DailyAverage(txs, ref),
		Balance:       Balance(txs),
		TotalCredit:   TotalByKind(txs, core.Credit),
		TotalDebit:    TotalByKind(txs, core.Debit),
		ByCategory:    byCategory,
	}
}

// TotalAmount is Total over the current records.
func (l *Ledger) TotalAmount() core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Total(l.items)
}

func (l *Ledger) TotalByKind(kind core.Kind) core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return TotalByKind(l.items, kind)
}

func (l *Ledger) Balance() core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Balance(l.items)
}

func (l *Ledger) TotalByCategory() []core.CategoryAmount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return TotalByCategory(l.items)
}

func (l *Ledger) MonthlyTotal(ref core.Date) core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return MonthlyTotal(l.items, ref)
}

func (l *Ledger) DailyAverage(ref core.Date) core.Money {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return DailyAverage(l.items, ref)
}

func (l *Ledger) FilterByCategory(c core.Category) []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FilterByCategory(l.items, c)
}

func (l *Ledger) FilterByKind(k core.Kind) []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FilterByKind(l.items, k)
}

// Summary returns the dashboard figures together with the revision they were
// computed at.
func (l *Ledger) Summary(ref core.Date) (core.Summary, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Summarize(l.items, ref), l.revision
}
