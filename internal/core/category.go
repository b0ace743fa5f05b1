package core

import (
	"fmt"
	"strings"
)

// Kind tells income from expenses.
type Kind string

const (
	Credit Kind = "credit"
	Debit  Kind = "debit"
)

// ParseKind accepts credit/debit and the income/expense labels, case
// insensitively. An empty string means Debit.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debit", "expense":
		return Debit, nil
	case "credit", "income":
		return Credit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Label is the user facing name of the kind.
func (k Kind) Label() string {
	if k == Credit {
		return "Income"
	}
	return "Expense"
}

// Category is the closed set of spending categories.
type Category string

const (
	Food           Category = "food"
	Transportation Category = "transportation"
	Utilities      Category = "utilities"
	Entertainment  Category = "entertainment"
	Shopping       Category = "shopping"
	Healthcare     Category = "healthcare"
	Education      Category = "education"
	Other          Category = "other"
)

var categoryNames = []struct {
	c    Category
	name string
}{
	{Food, "Food & Dining"},
	{Transportation, "Transportation"},
	{Utilities, "Utilities"},
	{Entertainment, "Entertainment"},
	{Shopping, "Shopping"},
	{Healthcare, "Healthcare"},
	{Education, "Education"},
	{Other, "Other"},
}

// Categories lists every category in menu order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i, cn := range categoryNames {
		out[i] = cn.c
	}
	return out
}

// ParseCategory matches a category value or display name. Anything it does
// not recognise is Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, cn := range categoryNames {
		if strings.EqualFold(s, string(cn.c)) || strings.EqualFold(s, cn.name) {
			return cn.c
		}
	}
	return Other
}

// DisplayName returns the label used in exports and the dashboard.
func (c Category) DisplayName() string {
	for _, cn := range categoryNames {
		if cn.c == c {
			return cn.name
		}
	}
	return "Other"
}
