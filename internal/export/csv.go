package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"pennywise/internal/core"
)

// CSV writes the header and one line per record, in ledger order. Fields
// are joined with commas and never quoted, so a description containing a
// comma shifts the columns of its row.
func CSV(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Columns, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range txs {
		if _, err := bw.WriteString(strings.Join(Row(tx), ",") + "\n"); err != nil {
			return fmt.Errorf("write csv row %s: %w", tx.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
