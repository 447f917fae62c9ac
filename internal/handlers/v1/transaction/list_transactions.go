package transaction

import (
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
)

// List handles GET /transactions. With an id it returns that one record.
func (h *Handler) List(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	id, ok, err := requestID(req, nil)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "ID inválido", "Informe um ID numérico", err)
	}

	if !ok {
		list := h.Service.GetAll()
		logData.AddData("count", len(list))
		return writeJSON(w, http.StatusOK, list)
	}

	logData.AddData("transactionID", id)
	t, err := h.Service.Get(id)
	if errors.Is(err, ledger.ErrNotFound) {
		return writeError(w, http.StatusNotFound, "Transação não encontrada", "Nenhuma transação com o ID informado", err)
	}
	if err != nil {
		return writeError(w, http.StatusInternalServerError, "Erro interno do servidor", "Tente novamente em alguns instantes", err)
	}
	return writeJSON(w, http.StatusOK, t)
}
