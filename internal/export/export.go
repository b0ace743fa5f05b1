// Package export renders the ledger as downloadable files.
package export

import (
	"errors"
	"io"
	"strings"

	"pennywise/internal/core"
)

// ErrNothingToExport is returned for an empty ledger; nothing is written.
var ErrNothingToExport = errors.New("no expenses to export")

// Format names an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Columns is the header row shared by every export format.
var Columns = []string{"Name", "Amount", "Category", "Date"}

// ParseFormat accepts "csv" and "xlsx" in any case.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "expense_data." + string(f)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders txs in format f.
func Write(w io.Writer, f Format, txs []core.Transaction) error {
	if f == FormatXLSX {
		return XLSX(w, txs)
	}
	return CSV(w, txs)
}

// Row returns the export cells of one record: description, plain amount,
// category display name and ISO date.
func Row(tx core.Transaction) []string {
	return []string{tx.Description, tx.Amount.Plain(), tx.Category.DisplayName(), tx.Date.String()}
}
