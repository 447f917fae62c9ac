package summary

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// BalanceBody is the response body for the balance endpoint.
type BalanceBody struct {
	Balance float64 `json:"balance" doc:"Sum of all transaction values"`
}

type BalanceOutput struct {
	Body BalanceBody
}

func (h *Handler) registerBalance(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-balance",
		Method:      http.MethodGet,
		Path:        "/v1/balance",
		Summary:     "Get balance",
		Description: "Returns the sum of all transaction values.",
		Tags:        []string{"Ledger"},
	}, h.balance)
}

func (h *Handler) balance(_ context.Context, _ *struct{}) (*BalanceOutput, error) {
	return &BalanceOutput{Body: BalanceBody{Balance: h.Ledger.Balance()}}, nil
}
