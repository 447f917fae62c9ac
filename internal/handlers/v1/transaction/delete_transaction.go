package transaction

import (
	"errors"
	"net/http"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	ID      transaction.ID `json:"id"`
	Deleted bool           `json:"deleted"`
	Message string         `json:"message"`
}

// Delete handles DELETE /transactions?id= and /transactions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	id, ok, err := requestID(req, nil)
	if err != nil || !ok {
		if err == nil {
			err = errors.New("missing id")
		}
		return writeError(w, http.StatusBadRequest, "ID é obrigatório para exclusão", "Informe o ID da transação a ser excluída", err)
	}
	logData.AddData("transactionID", id)

	m, err := h.Service.Delete(req.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		return writeError(w, http.StatusNotFound, "Transação não encontrada", "Nenhuma transação com o ID informado", err)
	}
	if err != nil {
		return writeError(w, http.StatusInternalServerError, "Erro interno do servidor", "Tente novamente em alguns instantes", err)
	}

	warn(w, logData, m)
	return writeJSON(w, http.StatusOK, DeleteResponse{ID: id, Deleted: true, Message: "Transação excluída com sucesso"})
}
