package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

var (
	// ErrPersistenceUnavailable marks any failure to read or write the backing
	// store: a disabled or full local slot, or a failed remote call.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotInitialized is returned by LoadAll when nothing has ever been saved.
	ErrNotInitialized = errors.New("storage not initialized")

	// ErrRecordNotFound is returned when a backend is asked to change a record it does not hold.
	ErrRecordNotFound = errors.New("record not found in storage")
)

// Backend persists the full transaction list. Every mutating call returns the
// list as the backend holds it after the call.
type Backend interface {
	Name() string
	LoadAll(ctx context.Context) ([]transaction.Record, error)
	SaveAll(ctx context.Context, list []transaction.Transaction) error
	Append(ctx context.Context, t transaction.Transaction) ([]transaction.Transaction, error)
	UpdateOne(ctx context.Context, id transaction.ID, patch transaction.Patch) ([]transaction.Transaction, error)
	RemoveOne(ctx context.Context, id transaction.ID) ([]transaction.Transaction, error)
	// Clear removes every stored transaction. Local backends forget the slot
	// entirely, so their next LoadAll reports ErrNotInitialized.
	Clear(ctx context.Context) error
	// Probe checks that the backend can currently be read and written.
	Probe(ctx context.Context) error
}

// Unavailable wraps err as ErrPersistenceUnavailable unless it already is.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistenceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistenceUnavailable, op, err)
}
