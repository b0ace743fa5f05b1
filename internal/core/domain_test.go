package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{"2025-02-29", false},
		{"2025-13-01", false},
		{"2025-03-10T08:00:00Z", true},
		{"10/03/2025", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
		}
	}
}

func TestDateMonthHelpers(t *testing.T) {
	cases := []struct {
		d    Date
		days int
	}{
		{NewDate(2024, time.February, 10), 29},
		{NewDate(2025, time.February, 10), 28},
		{NewDate(2025, time.April, 30), 30},
		{NewDate(2025, time.December, 31), 31},
	}
	for _, tc := range cases {
		if got := tc.d.DaysInMonth(); got != tc.days {
			t.Fatalf("%s: DaysInMonth = %d, want %d", tc.d, got, tc.days)
		}
		first := tc.d.FirstOfMonth()
		if first.Day() != 1 || first.Month() != tc.d.Month() || first.Year() != tc.d.Year() {
			t.Fatalf("%s: FirstOfMonth = %s", tc.d, first)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 7)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"2025-03-07"` {
		t.Fatalf("MarshalJSON = %s, %v", b, err)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("got %s, want %s", back, d)
	}
}

func TestNormalize(t *testing.T) {
	today := NewDate(2025, time.June, 15)
	good := TransactionInput{
		Description: "  Coffee ",
		Amount:      Money{Cents: 450},
		Category:    "FOOD",
	}
	out, err := good.Normalize(today)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if out.Description != "Coffee" {
		t.Fatalf("description not trimmed: %q", out.Description)
	}
	if out.Kind != Debit {
		t.Fatalf("default kind = %q, want debit", out.Kind)
	}
	if out.Category != Food {
		t.Fatalf("category = %q, want food", out.Category)
	}
	if !out.Date.Equal(today.Time) {
		t.Fatalf("date = %s, want today", out.Date)
	}

	bads := []struct {
		in    TransactionInput
		field string
		err   error
	}{
		{TransactionInput{Description: " ", Amount: Money{Cents: 1}}, "description", ErrEmptyDescription},
		{TransactionInput{Description: strings.Repeat("x", MaxDescriptionLength+1), Amount: Money{Cents: 1}}, "description", ErrDescriptionTooLong},
		{TransactionInput{Description: "a", Amount: Money{Cents: 0}}, "amount", ErrInvalidAmount},
		{TransactionInput{Description: "a", Amount: Money{Cents: -100}}, "amount", ErrInvalidAmount},
		{TransactionInput{Description: "a", Amount: Money{Cents: MaxAmountCents + 1}}, "amount", ErrAmountTooLarge},
		{TransactionInput{Description: "a", Amount: Money{Cents: 1}, Kind: "transfer"}, "kind", ErrInvalidKind},
	}
	for i, tc := range bads {
		_, err := tc.in.Normalize(today)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if ve.Field != tc.field || !errors.Is(err, tc.err) {
			t.Fatalf("case %d got field %q err %v", i, ve.Field, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d IsValidation false", i)
		}
	}
}

func TestCategoryParsing(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"food", Food},
		{"Food & Dining", Food},
		{"HEALTHCARE", Healthcare},
		{"education", Education},
		{"groceries", Other},
		{"", Other},
	}
	for _, tc := range cases {
		if got := ParseCategory(tc.in); got != tc.want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if Food.DisplayName() != "Food & Dining" {
		t.Fatalf("unexpected display name %q", Food.DisplayName())
	}
	if Category("bogus").DisplayName() != "Other" {
		t.Fatalf("unknown categories should display as Other")
	}
	if len(Categories()) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(Categories()))
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"credit", Credit, true},
		{"Income", Credit, true},
		{"debit", Debit, true},
		{"EXPENSE", Debit, true},
		{"", Debit, true},
		{"refund", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, %v", tc.in, got, err)
		}
	}
	if Credit.Label() != "Income" || Debit.Label() != "Expense" {
		t.Fatalf("unexpected labels")
	}
}
