package transaction

import (
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
)

// Update handles PUT /transactions. The id comes from the path, ?id= or the
// body; name and value are both required.
func (h *Handler) Update(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	const missing = "ID, nome e valor são obrigatórios"

	draft, err := decodeDraft(w, req)
	if err != nil {
		return err
	}

	id, ok, err := requestID(req, draft.ID)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("missing id")
		}
		return writeError(w, http.StatusBadRequest, missing, "Por favor, preencha todos os campos", err)
	}
	if draft.Name == nil || draft.Value == nil {
		return writeError(w, http.StatusBadRequest, missing, "Por favor, preencha todos os campos", errors.New("missing name or value"))
	}
	logData.AddData("transactionID", id)

	m, err := h.Service.Update(req.Context(), id, draft)
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return writeError(w, http.StatusBadRequest, missing, "Por favor, preencha todos os campos", err)
	case errors.Is(err, ledger.ErrNotFound):
		return writeError(w, http.StatusNotFound, "Transação não encontrada", "Nenhuma transação com o ID informado", err)
	case err != nil:
		return writeError(w, http.StatusInternalServerError, "Erro interno do servidor", "Tente novamente em alguns instantes", err)
	}

	warn(w, logData, m)
	return writeJSON(w, http.StatusOK, m.Record)
}
