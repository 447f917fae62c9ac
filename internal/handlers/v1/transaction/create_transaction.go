package transaction

import (
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
)

// Create handles POST /transactions. The body is {name, value} with an
// optional proposed id.
func (h *Handler) Create(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	draft, err := decodeDraft(w, req)
	if err != nil {
		return err
	}

	m, err := h.Service.Create(req.Context(), draft)
	if errors.Is(err, ledger.ErrValidation) {
		return writeError(w, http.StatusBadRequest, "Nome e valor são obrigatórios", "Por favor, preencha todos os campos", err)
	}
	if err != nil {
		return writeError(w, http.StatusInternalServerError, "Erro interno do servidor", "Tente novamente em alguns instantes", err)
	}

	logData.AddData("transactionID", m.Record.ID)
	warn(w, logData, m)
	return writeJSON(w, http.StatusCreated, m.Record)
}
