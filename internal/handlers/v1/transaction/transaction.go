// Package transaction serves the /transactions endpoint with its original
// wire contract: plain JSON arrays and records, {error, details} failures.
package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type transactionService interface {
	GetAll() []transaction.Transaction
	Get(id transaction.ID) (transaction.Transaction, error)
	Create(ctx context.Context, d transaction.Draft) (ledger.Mutation, error)
	Update(ctx context.Context, id transaction.ID, d transaction.Draft) (ledger.Mutation, error)
	Delete(ctx context.Context, id transaction.ID) (ledger.Mutation, error)
}

// ErrorResponse is the failure body of every /transactions call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Handler struct {
	Service transactionService
}

func NewHandler(svc transactionService) *Handler {
	return &Handler{Service: svc}
}

// maxBodyBytes bounds create and update bodies.
const maxBodyBytes = 64 << 10

// decodeDraft reads a draft from the request body. Malformed bodies get a
// 400, oversized ones a 413; the returned error is non-nil in both cases and
// the response has already been written.
func decodeDraft(w http.ResponseWriter, req *http.Request) (transaction.Draft, error) {
	var draft transaction.Draft
	err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&draft)
	if err == nil {
		return draft, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return draft, writeError(w, http.StatusRequestEntityTooLarge, "Dados inválidos", "O corpo da requisição é grande demais", err)
	}
	return draft, writeError(w, http.StatusBadRequest, "Dados inválidos", "Verifique o formato dos dados enviados", err)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// writeError sends the failure body and returns err so the logging wrapper
// records it.
func writeError(w http.ResponseWriter, status int, message, details string, err error) error {
	if encErr := writeJSON(w, status, ErrorResponse{Error: message, Details: details}); encErr != nil {
		return errors.Join(err, encErr)
	}
	return err
}

// requestID reads the id from the path, then ?id=, then the body when one
// was decoded. ok is false when none is present.
func requestID(req *http.Request, fromBody *transaction.ID) (id transaction.ID, ok bool, err error) {
	raw := chi.URLParam(req, "id")
	if raw == "" {
		raw = req.URL.Query().Get("id")
	}
	if strings.TrimSpace(raw) != "" {
		id, err = transaction.ParseID(raw)
		return id, err == nil, err
	}
	if fromBody != nil && *fromBody != 0 {
		return *fromBody, true, nil
	}
	return 0, false, nil
}

// warn surfaces a persistence warning on the response and in the request log.
func warn(w http.ResponseWriter, logData *logging.LogData, m ledger.Mutation) {
	if m.Warning == nil {
		return
	}
	w.Header().Set("X-Ledger-Warning", "not persisted")
	logData.AddData("persistWarning", m.Warning.Error())
}
