package summary

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type SearchInput struct {
	Term string `query:"term" doc:"Case-insensitive text to look for in transaction names"`
}

func (h *Handler) registerSearch(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "search-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/transactions/search",
		Summary:     "Search transactions",
		Description: "Returns transactions whose name contains the term. An empty term returns everything.",
		Tags:        []string{"Ledger"},
	}, h.search)
}

func (h *Handler) search(_ context.Context, input *SearchInput) (*TransactionsOutput, error) {
	return newTransactionsOutput(h.Ledger.Search(input.Term)), nil
}
