// Package local persists the transaction list as one JSON array in a
// key-value slot, the way the browser app used local storage.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/kv"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

const (
	// DefaultKey is the slot key the transaction array lives under.
	DefaultKey = "financas_pessoais_transactions"

	probeKey = "__localStorage_test__"
)

var _ storage.Backend = (*Backend)(nil)

// Backend is the local persistence backend.
type Backend struct {
	slot      kv.Slot
	key       string
	available bool
	logger    logrus.FieldLogger
}

// New wraps slot and runs a write/delete probe against it. A nil slot or a
// failed probe leaves the backend unavailable: every call then fails with
// storage.ErrPersistenceUnavailable.
func New(slot kv.Slot, logger logrus.FieldLogger) *Backend {
	b := &Backend{
		slot:   slot,
		key:    DefaultKey,
		logger: logger.WithField("backend", "local"),
	}
	b.available = b.probe() == nil
	if !b.available {
		b.logger.Warn("Local.New.slot unavailable, data will not be persisted")
	}
	return b
}

// Available reports the result of the construction-time probe.
func (b *Backend) Available() bool {
	return b.available
}

func (b *Backend) Name() string {
	return "local"
}

func (b *Backend) probe() error {
	if b.slot == nil {
		return errors.New("no slot configured")
	}
	if err := b.slot.Set(probeKey, []byte(probeKey)); err != nil {
		return err
	}
	return b.slot.Delete(probeKey)
}

// Probe re-runs the write/delete check.
func (b *Backend) Probe(_ context.Context) error {
	return storage.Unavailable("probe", b.probe())
}

func (b *Backend) LoadAll(_ context.Context) ([]transaction.Record, error) {
	if !b.available {
		return nil, storage.Unavailable("load", errors.New("slot disabled"))
	}

	data, err := b.slot.Get(b.key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, storage.ErrNotInitialized
	}
	if err != nil {
		b.logger.WithError(err).Error("Local.LoadAll.get")
		return nil, storage.Unavailable("load", err)
	}

	var records []transaction.Record
	if err := json.Unmarshal(data, &records); err != nil {
		// Unreadable contents are treated like an empty slot so the caller reseeds.
		b.logger.WithError(err).Error("Local.LoadAll.decode")
		return nil, fmt.Errorf("%w: corrupt contents: %v", storage.ErrNotInitialized, err)
	}

	b.logger.WithField("count", len(records)).Debug("Local.LoadAll.loaded")
	return records, nil
}

func (b *Backend) SaveAll(_ context.Context, list []transaction.Transaction) error {
	if !b.available {
		return storage.Unavailable("save", errors.New("slot disabled"))
	}
	if list == nil {
		list = []transaction.Transaction{}
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}
	if err := b.slot.Set(b.key, data); err != nil {
		b.logger.WithError(err).Error("Local.SaveAll.set")
		return storage.Unavailable("save", err)
	}

	b.logger.WithField("count", len(list)).Debug("Local.SaveAll.saved")
	return nil
}

// current reads the stored list; a never-initialised slot reads as empty.
func (b *Backend) current(ctx context.Context) ([]transaction.Transaction, error) {
	records, err := b.LoadAll(ctx)
	if errors.Is(err, storage.ErrNotInitialized) {
		return []transaction.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	return transaction.Transactions(records), nil
}

// Append stores t. A zero id is replaced with max(existing ids)+1.
func (b *Backend) Append(ctx context.Context, t transaction.Transaction) ([]transaction.Transaction, error) {
	list, err := b.current(ctx)
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		t.ID = transaction.MaxID(list) + 1
	}

	list = append(list, t)
	if err := b.SaveAll(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (b *Backend) UpdateOne(ctx context.Context, id transaction.ID, patch transaction.Patch) ([]transaction.Transaction, error) {
	list, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range list {
		if list[i].ID == id {
			list[i] = patch.Apply(list[i])
			found = true
			break
		}
	}
	if !found {
		return list, fmt.Errorf("%w: id %d", storage.ErrRecordNotFound, id)
	}

	if err := b.SaveAll(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (b *Backend) RemoveOne(ctx context.Context, id transaction.ID) ([]transaction.Transaction, error) {
	list, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]transaction.Transaction, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			kept = append(kept, t)
		}
	}

	if err := b.SaveAll(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (b *Backend) Clear(_ context.Context) error {
	if !b.available {
		return storage.Unavailable("clear", errors.New("slot disabled"))
	}
	return storage.Unavailable("clear", b.slot.Delete(b.key))
}

// Close releases the underlying slot.
func (b *Backend) Close() error {
	if b.slot == nil {
		return nil
	}
	return b.slot.Close()
}
