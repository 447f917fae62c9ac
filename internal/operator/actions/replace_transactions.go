package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// ReplaceTransactions swaps the whole list. A nil List with Clear set
// empties the ledger and forgets the stored copy.
type ReplaceTransactions struct {
	List  []transaction.Transaction
	Clear bool

	Result ledger.Mutation
	IAction
}

func (r *ReplaceTransactions) Perform(ctx context.Context, writer *ledger.Writer) error {
	if r.Clear {
		r.Result = writer.Clear(ctx)
		return nil
	}

	r.Result = writer.Replace(ctx, r.List)
	return nil
}
