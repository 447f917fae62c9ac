package summary

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/service"
)

type StatisticsOutput struct {
	Body service.Statistics
}

func (h *Handler) registerStatistics(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-statistics",
		Method:      http.MethodGet,
		Path:        "/v1/statistics",
		Summary:     "Get statistics",
		Description: "Returns count, income and expense totals, balance and average value.",
		Tags:        []string{"Ledger"},
	}, h.statistics)
}

func (h *Handler) statistics(_ context.Context, _ *struct{}) (*StatisticsOutput, error) {
	return &StatisticsOutput{Body: h.Ledger.Statistics()}, nil
}
