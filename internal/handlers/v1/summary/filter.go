package summary

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type FilterInput struct {
	Type string `query:"type" required:"true" enum:"income,expense" doc:"income (value >= 0) or expense (value < 0)"`
}

func (h *Handler) registerFilter(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "filter-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/transactions/filter",
		Summary:     "Filter transactions by type",
		Description: "Returns income or expense transactions.",
		Tags:        []string{"Ledger"},
	}, h.filter)
}

func (h *Handler) filter(_ context.Context, input *FilterInput) (*TransactionsOutput, error) {
	kind, err := transaction.ParseKind(input.Type)
	if err != nil {
		return nil, huma.NewError(http.StatusBadRequest, "invalid type", err)
	}
	return newTransactionsOutput(h.Ledger.FilterByType(kind)), nil
}
