package export

import (
	"context"

	"finsight/internal/core"
)

// LedgerWriter appends a transaction to an external ledger and returns a
// reference to where it landed.
type LedgerWriter interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
