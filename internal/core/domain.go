package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the user supplied description, in characters.
const MaxDescriptionLength = 200

type (
	// Transaction is one ledger record. Records are immutable once created;
	// edits replace them wholesale.
	Transaction struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Kind        Kind      `json:"kind"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// TransactionInput carries the user editable fields of a Transaction.
	TransactionInput struct {
		Description string
		Amount      Money
		Kind        Kind
		Category    Category
		Date        Date
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountTooLarge     = fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidKind        = errors.New("invalid transaction kind")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Normalize validates the input and fills defaults: a missing kind becomes
// Debit, an unknown category becomes Other and a missing date becomes today.
func (in TransactionInput) Normalize(today Date) (TransactionInput, error) {
	out := in
	out.Description = strings.TrimSpace(in.Description)
	if out.Description == "" {
		return TransactionInput{}, &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if utf8.RuneCountInString(out.Description) > MaxDescriptionLength {
		return TransactionInput{}, &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	if err := in.Amount.Validate(); err != nil {
		return TransactionInput{}, &ValidationError{Field: "amount", Err: err}
	}

	kind, err := ParseKind(string(in.Kind))
	if err != nil {
		return TransactionInput{}, &ValidationError{Field: "kind", Err: err}
	}
	out.Kind = kind
	out.Category = ParseCategory(string(in.Category))

	if in.Date.IsZero() {
		out.Date = today
	}
	if err := out.Date.Validate(); err != nil {
		return TransactionInput{}, &ValidationError{Field: "date", Err: err}
	}
	return out, nil
}

// Input returns the editable fields of t.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Description: t.Description,
		Amount:      t.Amount,
		Kind:        t.Kind,
		Category:    t.Category,
		Date:        t.Date,
	}
}

// Date is a calendar day, stored as UTC midnight.
type Date struct {
	time.Time
}

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD. Impossible days such as 2025-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
