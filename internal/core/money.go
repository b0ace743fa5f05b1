// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing and division go through
// shopspring/decimal so no float ever touches a stored value.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. Totals and balances may be negative, a
// transaction amount never is.
type Money struct {
	Cents int64
}

// MaxAmountCents bounds a single amount so that ledger totals stay far from
// int64 overflow.
const MaxAmountCents int64 = 1_000_000_000_000

var maxCents = decimal.NewFromInt(MaxAmountCents)

// MaxAmount is the largest amount a transaction may carry.
var MaxAmount = Money{Cents: MaxAmountCents}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero, negative and signed
// inputs are rejected, as are amounts above MaxAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if cents.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

// ParseMoney is ParseDecimalToCents returning a Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// MoneyFromDecimal rounds d, expressed in currency units, to the nearest cent.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// Decimal returns m in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// String renders m with exactly two decimals, e.g. "4.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Plain renders m without trailing zeros, e.g. "4.5" or "100".
func (m Money) Plain() string {
	return m.Decimal().String()
}

// MarshalJSON writes m as a bare JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Plain()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string whose magnitude
// does not exceed MaxAmount.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(string(b), ",", "."))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	if d.Shift(2).Round(0).Abs().GreaterThan(maxCents) {
		return fmt.Errorf("%w: %s", ErrAmountTooLarge, b)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
