// Package export pushes ledger entries to an external spreadsheet.
package export

import (
	"context"

	"pocketbook/internal/core"
)

// RowWriter is the outbound port for the spreadsheet adapter.
type RowWriter interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
