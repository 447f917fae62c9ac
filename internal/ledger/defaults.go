package ledger

import "github.com/carson-networks/ledger-server/internal/storage/transaction"

// DefaultTransactions is the seed used when storage is empty or unreachable.
func DefaultTransactions() []transaction.Transaction {
	return []transaction.Transaction{
		{ID: 1, Name: "Salário", Value: 5000},
		{ID: 2, Name: "Mercado", Value: -350},
		{ID: 3, Name: "Freelance", Value: 1200},
	}
}
