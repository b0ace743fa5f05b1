package sheets

import (
	"context"

	"pennywise/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// Exporter replaces the contents of a spreadsheet range with the ledger
	// and returns a reference to the written range.
	Exporter interface {
		Export(ctx context.Context, txs []core.Transaction) (rangeRef string, err error)
	}
)
