package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type UpdateTransaction struct {
	ID    transaction.ID
	Draft transaction.Draft

	Result ledger.Mutation
	IAction
}

func (u *UpdateTransaction) Perform(ctx context.Context, writer *ledger.Writer) error {
	m, err := writer.Update(ctx, u.ID, u.Draft)
	if err != nil {
		return err
	}

	u.Result = m
	return nil
}
