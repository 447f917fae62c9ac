package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

type mockTransactionService struct {
	mock.Mock
}

func (m *mockTransactionService) GetAll() []transaction.Transaction {
	args := m.Called()
	return args.Get(0).([]transaction.Transaction)
}

func (m *mockTransactionService) Get(id transaction.ID) (transaction.Transaction, error) {
	args := m.Called(id)
	return args.Get(0).(transaction.Transaction), args.Error(1)
}

func (m *mockTransactionService) Create(ctx context.Context, d transaction.Draft) (ledger.Mutation, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(ledger.Mutation), args.Error(1)
}

func (m *mockTransactionService) Update(ctx context.Context, id transaction.ID, d transaction.Draft) (ledger.Mutation, error) {
	args := m.Called(ctx, id, d)
	return args.Get(0).(ledger.Mutation), args.Error(1)
}

func (m *mockTransactionService) Delete(ctx context.Context, id transaction.ID) (ledger.Mutation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ledger.Mutation), args.Error(1)
}

// newTestRouter mounts the handlers the way the api package does.
func newTestRouter(svc transactionService) http.Handler {
	logger := logging.SetupLogging()
	logger.SetOutput(io.Discard)

	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/transactions", logging.LoggingWrapper("ListTransactions", logger, h.List))
	r.Get("/transactions/{id}", logging.LoggingWrapper("GetTransaction", logger, h.List))
	r.Post("/transactions", logging.LoggingWrapper("CreateTransaction", logger, h.Create))
	r.Put("/transactions", logging.LoggingWrapper("UpdateTransaction", logger, h.Update))
	r.Put("/transactions/{id}", logging.LoggingWrapper("UpdateTransaction", logger, h.Update))
	r.Delete("/transactions", logging.LoggingWrapper("DeleteTransaction", logger, h.Delete))
	r.Delete("/transactions/{id}", logging.LoggingWrapper("DeleteTransaction", logger, h.Delete))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func draftWith(name string, value string) interface{} {
	return mock.MatchedBy(func(d transaction.Draft) bool {
		return d.Name != nil && *d.Name == name && d.Value != nil && string(*d.Value) == value
	})
}

func TestList(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("GetAll").Return([]transaction.Transaction{{ID: 1, Name: "Salário", Value: 5000}})

	w := do(t, newTestRouter(svc), http.MethodGet, "/transactions", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Salário","value":5000}]`, w.Body.String())
}

func TestList_EmptyIsArray(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("GetAll").Return([]transaction.Transaction{})

	w := do(t, newTestRouter(svc), http.MethodGet, "/transactions", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGet(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Get", transaction.ID(2)).Return(transaction.Transaction{ID: 2, Name: "Mercado", Value: -350}, nil)
	svc.On("Get", transaction.ID(9)).Return(transaction.Transaction{}, fmt.Errorf("%w: id 9", ledger.ErrNotFound))
	router := newTestRouter(svc)

	w := do(t, router, http.MethodGet, "/transactions/2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2,"name":"Mercado","value":-350}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/transactions?id=9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/transactions?id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Create", mock.Anything, draftWith("Freelance", "1200")).
		Return(ledger.Mutation{Record: transaction.Transaction{ID: 3, Name: "Freelance", Value: 1200}}, nil)

	w := do(t, newTestRouter(svc), http.MethodPost, "/transactions", `{"name":"Freelance","value":1200}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":3,"name":"Freelance","value":1200}`, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Ledger-Warning"))
	svc.AssertExpectations(t)
}

func TestCreate_NotPersistedWarning(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Create", mock.Anything, mock.Anything).Return(ledger.Mutation{
		Record:  transaction.Transaction{ID: 3, Name: "Freelance", Value: 1200},
		Warning: storage.Unavailable("append", errors.New("disk full")),
	}, nil)

	w := do(t, newTestRouter(svc), http.MethodPost, "/transactions", `{"name":"Freelance","value":1200}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "not persisted", w.Header().Get("X-Ledger-Warning"))
}

func TestCreate_Invalid(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Create", mock.Anything, mock.Anything).
		Return(ledger.Mutation{}, &ledger.ValidationError{Field: "name", Reason: "is required"})
	router := newTestRouter(svc)

	w := do(t, router, http.MethodPost, "/transactions", `{"value":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nome e valor são obrigatórios", decodeError(t, w).Error)

	w = do(t, router, http.MethodPost, "/transactions", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Dados inválidos", decodeError(t, w).Error)
}

func TestUpdate(t *testing.T) {
	tests := map[string]struct {
		target string
		body   string
	}{
		"query id": {target: "/transactions?id=2", body: `{"name":"Feira","value":-80}`},
		"path id":  {target: "/transactions/2", body: `{"name":"Feira","value":-80}`},
		"body id":  {target: "/transactions", body: `{"id":"2","name":"Feira","value":-80}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := new(mockTransactionService)
			svc.On("Update", mock.Anything, transaction.ID(2), draftWith("Feira", "-80")).
				Return(ledger.Mutation{Record: transaction.Transaction{ID: 2, Name: "Feira", Value: -80}}, nil)

			w := do(t, newTestRouter(svc), http.MethodPut, tt.target, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"id":2,"name":"Feira","value":-80}`, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestUpdate_Failures(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Update", mock.Anything, transaction.ID(999), mock.Anything).
		Return(ledger.Mutation{}, fmt.Errorf("%w: id 999", ledger.ErrNotFound))
	router := newTestRouter(svc)

	w := do(t, router, http.MethodPut, "/transactions", `{"name":"x","value":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID, nome e valor são obrigatórios", decodeError(t, w).Error)

	w = do(t, router, http.MethodPut, "/transactions?id=1", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPut, "/transactions?id=999", `{"name":"x","value":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Transação não encontrada", decodeError(t, w).Error)
}

func TestDelete(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Delete", mock.Anything, transaction.ID(2)).
		Return(ledger.Mutation{Record: transaction.Transaction{ID: 2, Name: "Mercado", Value: -350}}, nil)

	w := do(t, newTestRouter(svc), http.MethodDelete, "/transactions?id=2", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2,"deleted":true,"message":"Transação excluída com sucesso"}`, w.Body.String())
}

func TestDelete_Failures(t *testing.T) {
	svc := new(mockTransactionService)
	svc.On("Delete", mock.Anything, transaction.ID(2)).
		Return(ledger.Mutation{}, fmt.Errorf("%w: id 2", ledger.ErrNotFound))
	router := newTestRouter(svc)

	w := do(t, router, http.MethodDelete, "/transactions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID é obrigatório para exclusão", decodeError(t, w).Error)

	w = do(t, router, http.MethodDelete, "/transactions/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_BodyTooLarge(t *testing.T) {
	svc := new(mockTransactionService)
	router := newTestRouter(svc)

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `","value":1}`
	w := do(t, router, http.MethodPost, "/transactions", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Dados inválidos", decodeError(t, w).Error)

	w = do(t, router, http.MethodPut, "/transactions?id=1", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
