package logging

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingInput struct {
	Fail bool `query:"fail"`
}

type pingOutput struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func TestHumaMiddleware(t *testing.T) {
	logger, buf := captureLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(HumaMiddleware(logger))

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, input *pingInput) (*pingOutput, error) {
		logData := GetLogData(ctx)
		if logData == nil {
			return nil, huma.Error500InternalServerError("no log data")
		}
		logData.AddData("transactionID", 7)
		if input.Fail {
			return nil, huma.Error400BadRequest("bad ping")
		}
		out := &pingOutput{}
		out.Body.OK = true
		return out, nil
	})

	resp := api.Get("/ping")
	require.Equal(t, http.StatusOK, resp.Code)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Handler.ping.Start", lines[0]["msg"])
	assert.Equal(t, "Handler.ping.Complete", lines[1]["msg"])
	assert.Equal(t, float64(7), lines[1]["transactionID"])
	assert.Equal(t, float64(http.StatusOK), lines[1]["status"])
	assert.Contains(t, lines[1], "duration")
	assert.NotEmpty(t, lines[1]["requestID"])
	assert.Equal(t, lines[0]["requestID"], lines[1]["requestID"])

	buf.Reset()
	resp = api.Get("/ping?fail=true")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	lines = decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Handler.ping.Error", lines[1]["msg"])
	assert.Equal(t, "error", lines[1]["loglevel"])
}
