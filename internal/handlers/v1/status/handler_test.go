package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/logging"
)

type fakeChecker struct {
	err error
}

func (f fakeChecker) Health(context.Context) error { return f.err }
func (fakeChecker) BackendName() string { return "local" }

func createTestLogData() *logging.LogData {
	logger := logging.SetupLogging()
	logger.SetOutput(io.Discard)
	return logging.NewLogData(logger)
}

func TestHandler_GoodMethod(t *testing.T) {
	statusHandler := NewHandler(fakeChecker{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	w := httptest.NewRecorder()

	err := statusHandler.Handler(w, req, createTestLogData())
	assert.NoError(t, err)

	res := w.Result()
	assert.Equal(t, 200, res.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, Response{Status: "ok", Backend: "local"}, body)
}

func TestHandler_Degraded(t *testing.T) {
	statusHandler := NewHandler(fakeChecker{err: errors.New("persistence unavailable: probe: quota exceeded")})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	err := statusHandler.Handler(w, req, createTestLogData())
	assert.NoError(t, err)

	var body Response
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Contains(t, body.Error, "quota exceeded")
}

func TestHandler_BadMethod(t *testing.T) {
	statusHandler := NewHandler(fakeChecker{})
	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	w := httptest.NewRecorder()

	err := statusHandler.Handler(w, req, createTestLogData())
	assert.Error(t, err)

	res := w.Result()
	assert.Equal(t, 400, res.StatusCode)
}
