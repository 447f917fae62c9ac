package ledger

import (
	"context"
	"errors"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Mutation is the outcome of a change. The in-memory change always stands;
// Warning is set when it could not be persisted and wraps
// storage.ErrPersistenceUnavailable.
type Mutation struct {
	Record  transaction.Transaction
	Records []transaction.Transaction
	Warning error
}

// Durable reports whether the change reached storage.
func (m Mutation) Durable() bool {
	return m.Warning == nil
}

// Writer applies a change to the store and then to the backend.
type Writer struct {
	Store   *Store
	Backend storage.Backend
}

func NewWriter(store *Store, backend storage.Backend) *Writer {
	return &Writer{Store: store, Backend: backend}
}

func (w *Writer) Create(ctx context.Context, d transaction.Draft) (Mutation, error) {
	t, err := w.Store.Create(d)
	if err != nil {
		return Mutation{}, err
	}

	_, err = w.Backend.Append(ctx, t)
	return w.result(ctx, t, "append", err), nil
}

func (w *Writer) Update(ctx context.Context, id transaction.ID, d transaction.Draft) (Mutation, error) {
	t, err := w.Store.Update(id, d)
	if err != nil {
		return Mutation{}, err
	}

	_, err = w.Backend.UpdateOne(ctx, id, transaction.PatchOf(t))
	return w.result(ctx, t, "update", err), nil
}

func (w *Writer) Delete(ctx context.Context, id transaction.ID) (Mutation, error) {
	t, err := w.Store.Delete(id)
	if err != nil {
		return Mutation{}, err
	}

	_, err = w.Backend.RemoveOne(ctx, id)
	return w.result(ctx, t, "remove", err), nil
}

// Replace swaps the whole list and saves it.
func (w *Writer) Replace(ctx context.Context, list []transaction.Transaction) Mutation {
	records := w.Store.Replace(list)
	m := Mutation{Records: records}
	if err := w.Backend.SaveAll(ctx, records); err != nil {
		m.Warning = storage.Unavailable("save", err)
	}
	return m
}

// Clear empties the ledger and forgets the stored list.
func (w *Writer) Clear(ctx context.Context) Mutation {
	m := Mutation{Records: w.Store.Replace(nil)}
	if err := w.Backend.Clear(ctx); err != nil {
		m.Warning = storage.Unavailable("clear", err)
	}
	return m
}

// result builds the mutation. A backend that lost track of a record is
// resynchronised from the store with a full save.
func (w *Writer) result(ctx context.Context, t transaction.Transaction, op string, err error) Mutation {
	if errors.Is(err, storage.ErrRecordNotFound) {
		w.Store.logger.WithError(err).Warn("Writer.result.backend out of sync, saving full list")
		err = w.Backend.SaveAll(ctx, w.Store.List())
	}

	m := Mutation{Record: t, Records: w.Store.List()}
	if err != nil {
		w.Store.logger.WithError(err).WithField("op", op).Warn("Writer.result.change kept in memory only")
		m.Warning = storage.Unavailable(op, err)
	}
	return m
}
