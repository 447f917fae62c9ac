// Package summary exposes read-only views of the ledger as typed huma
// operations under /v1.
package summary

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type ledgerReader interface {
	Balance() float64
	Statistics() service.Statistics
	Search(term string) []transaction.Transaction
	FilterByType(kind transaction.Kind) []transaction.Transaction
}

// Handler serves the summary endpoints.
type Handler struct {
	Ledger ledgerReader
}

func NewHandler(l ledgerReader) *Handler {
	return &Handler{Ledger: l}
}

// Register registers every summary endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	h.registerBalance(api)
	h.registerStatistics(api)
	h.registerSearch(api)
	h.registerFilter(api)
}

// TransactionsBody is a list of transactions.
type TransactionsBody struct {
	Transactions []transaction.Transaction `json:"transactions" doc:"Matching transactions in insertion order"`
	Count        int                       `json:"count" doc:"Number of matches"`
}

// TransactionsOutput is the Huma output for list-shaped summary endpoints.
type TransactionsOutput struct {
	Body TransactionsBody
}

func newTransactionsOutput(list []transaction.Transaction) *TransactionsOutput {
	if list == nil {
		list = []transaction.Transaction{}
	}
	return &TransactionsOutput{Body: TransactionsBody{Transactions: list, Count: len(list)}}
}
