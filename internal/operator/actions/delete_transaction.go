package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type DeleteTransaction struct {
	ID transaction.ID

	Result ledger.Mutation
	IAction
}

func (d *DeleteTransaction) Perform(ctx context.Context, writer *ledger.Writer) error {
	m, err := writer.Delete(ctx, d.ID)
	if err != nil {
		return err
	}

	d.Result = m
	return nil
}
