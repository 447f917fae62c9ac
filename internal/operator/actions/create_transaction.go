package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type CreateTransaction struct {
	Draft transaction.Draft

	Result ledger.Mutation
	IAction
}

func (c *CreateTransaction) Perform(ctx context.Context, writer *ledger.Writer) error {
	m, err := writer.Create(ctx, c.Draft)
	if err != nil {
		return err
	}

	c.Result = m
	return nil
}
