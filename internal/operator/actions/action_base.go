package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
)

// IAction is one change to the ledger. Results are written back into the
// action so the caller can read them once Process returns.
type IAction interface {
	Perform(ctx context.Context, writer *ledger.Writer) error
}
