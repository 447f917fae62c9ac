package ledger

import (
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an id is not in the ledger.
	ErrNotFound = errors.New("transaction not found")
)

// ValidationError describes rejected user input. No state is changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func notFound(id transaction.ID) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
