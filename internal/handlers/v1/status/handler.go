package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/logging"
)

type healthChecker interface {
	Health(ctx context.Context) error
	BackendName() string
}

// Response reports whether the process and its storage are usable.
type Response struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	Checker healthChecker
}

func NewHandler(checker healthChecker) Handler {
	return Handler{Checker: checker}
}

// Handler answers GET /status. Degraded storage is reported in the body; the
// process still serves from memory, so the status code stays 200.
func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != "GET" {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	resp := Response{Status: "ok", Backend: h.Checker.BackendName()}
	if err := h.Checker.Health(req.Context()); err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		logData.AddData("storageError", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(resp)
}
