// Package ledger holds the authoritative in-memory transaction list.
package ledger

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// DefaultCacheWindow is how long a computed balance is reused.
const DefaultCacheWindow = 100 * time.Millisecond

// Options tunes a Store. The zero value disables the balance cache and the
// legacy migration; use DefaultOptions for the usual settings.
type Options struct {
	CacheWindow      time.Duration
	MigrationEnabled bool
	// Defaults seeds the ledger when storage is empty or unreachable.
	// Nil means DefaultTransactions.
	Defaults []transaction.Transaction
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

// DefaultOptions returns the options the app runs with.
func DefaultOptions(logger logrus.FieldLogger) Options {
	return Options{
		CacheWindow:      DefaultCacheWindow,
		MigrationEnabled: true,
		Logger:           logger,
	}
}

// Store owns the transaction list for the lifetime of the process. Insertion
// order is kept; nothing is sorted.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	opts    Options
	logger  *logrus.Entry

	loaded    bool
	records   []transaction.Transaction
	highWater transaction.ID

	balanceValid bool
	balance      float64
	balanceAt    time.Time
}

// NewStore creates a store that loads from backend on first use.
func NewStore(backend storage.Backend, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Defaults == nil {
		opts.Defaults = DefaultTransactions()
	}
	return &Store{
		backend: backend,
		opts:    opts,
		logger:  opts.Logger.WithField("component", "ledger"),
	}
}

// Load returns the current list. The first call reads the backend, migrates
// legacy records and writes the migrated set back. When storage was never
// initialised the defaults are seeded and saved; when it is unreachable the
// defaults are used in memory only.
//
// The returned list is always usable. A non-nil error wraps
// storage.ErrPersistenceUnavailable and reports that storage is degraded.
func (s *Store) Load(ctx context.Context) ([]transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.snapshot(), nil
	}

	var (
		list      []transaction.Transaction
		writeBack bool
		warning   error
	)

	records, err := s.backend.LoadAll(ctx)
	switch {
	case errors.Is(err, storage.ErrNotInitialized):
		s.logger.Info("Store.Load.seeding defaults")
		list = copyList(s.opts.Defaults)
		writeBack = true
	case err != nil:
		s.logger.WithError(err).Warn("Store.Load.backend unavailable, using defaults")
		list = copyList(s.opts.Defaults)
		warning = storage.Unavailable("load", err)
	case s.opts.MigrationEnabled:
		var migrated bool
		list, migrated = Migrate(records)
		if migrated {
			s.logger.Info("Store.Load.migrated amount to value")
			writeBack = true
		}
	default:
		legacy := 0
		for _, r := range records {
			if r.IsLegacy() {
				legacy++
			}
		}
		if legacy > 0 {
			s.logger.WithField("legacyCount", legacy).Warn("Store.Load.migration disabled, legacy amounts ignored")
		}
		list = transaction.Transactions(records)
	}

	if s.normalizeIDs(list) && warning == nil {
		writeBack = true
	}

	if writeBack {
		if err := s.backend.SaveAll(ctx, list); err != nil {
			s.logger.WithError(err).Warn("Store.Load.write back failed")
			warning = storage.Unavailable("write back", err)
		}
	}

	s.records = list
	s.highWater = transaction.MaxID(list)
	s.loaded = true
	s.invalidate()

	s.logger.WithField("count", len(list)).Info("Store.Load.loaded")
	if s.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		s.logger.Debug(spew.Sdump(list))
	}
	return s.snapshot(), warning
}

// normalizeIDs gives missing or repeated ids a fresh value so ids stay unique.
func (s *Store) normalizeIDs(list []transaction.Transaction) bool {
	changed := false
	taken := make(map[transaction.ID]bool, len(list))
	for _, t := range list {
		taken[t.ID] = true
	}

	seen := make(map[transaction.ID]bool, len(list))
	next := transaction.MaxID(list)
	for i := range list {
		if list[i].ID <= 0 || seen[list[i].ID] {
			next = nextFreeID(taken, next)
			s.logger.WithFields(logrus.Fields{"from": list[i].ID, "to": next}).Warn("Store.normalizeIDs.reassigned id")
			list[i].ID = next
			taken[next] = true
			changed = true
		}
		seen[list[i].ID] = true
	}
	return changed
}

// nextFreeID returns the first unused id above after. Past the top of the
// range it falls back to the lowest unused positive id.
func nextFreeID(taken map[transaction.ID]bool, after transaction.ID) transaction.ID {
	for id := after + 1; id > 0; id++ {
		if !taken[id] {
			return id
		}
	}
	id := transaction.ID(1)
	for taken[id] {
		id++
	}
	return id
}

// List returns a copy of the current list.
func (s *Store) List() []transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns the transaction with the given id.
func (s *Store) Get(id transaction.ID) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return transaction.Transaction{}, notFound(id)
	}
	return s.records[idx], nil
}

// MaxProposedID bounds ids a caller may propose on create. Larger ids would
// not survive a round trip through a JSON number.
const MaxProposedID transaction.ID = 1<<53 - 1

// Create validates d, assigns an id and appends the new transaction. A
// proposed id in d is kept when it is above every id handed out so far and
// at most MaxProposedID; otherwise the next free id is used.
func (s *Store) Create(d transaction.Draft) (transaction.Transaction, error) {
	name, err := validateName(d.Name, true)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if d.Value == nil {
		return transaction.Transaction{}, &ValidationError{Field: "value", Reason: "is required"}
	}
	value := s.sanitize(*d.Value)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := transaction.Transaction{Name: name, Value: value}
	switch {
	case d.ID != nil && *d.ID > s.highWater && *d.ID <= MaxProposedID:
		t.ID = *d.ID
	case s.highWater == math.MaxInt64:
		return transaction.Transaction{}, &ValidationError{Field: "id", Reason: "no ids left to assign"}
	default:
		t.ID = s.highWater + 1
	}
	s.highWater = t.ID

	s.records = append(s.records, t)
	s.invalidate()
	return t, nil
}

// Update merges the supplied fields of d into the transaction with id.
func (s *Store) Update(id transaction.ID, d transaction.Draft) (transaction.Transaction, error) {
	var name string
	if d.Name != nil {
		var err error
		if name, err = validateName(d.Name, true); err != nil {
			return transaction.Transaction{}, err
		}
	}

	var value float64
	if d.Value != nil {
		value = s.sanitize(*d.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return transaction.Transaction{}, notFound(id)
	}

	t := s.records[idx]
	if d.Name != nil {
		t.Name = name
	}
	if d.Value != nil {
		t.Value = value
	}
	s.records[idx] = t
	s.invalidate()
	return t, nil
}

// Delete removes the transaction with id. Its id is not handed out again.
func (s *Store) Delete(id transaction.ID) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return transaction.Transaction{}, notFound(id)
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx:idx], s.records[idx+1:]...)
	s.invalidate()
	return removed, nil
}

// Replace swaps the whole list, e.g. on import or reset.
func (s *Store) Replace(list []transaction.Transaction) []transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	list = copyList(list)
	s.normalizeIDs(list)
	s.records = list
	s.loaded = true
	if max := transaction.MaxID(list); max > s.highWater {
		s.highWater = max
	}
	s.invalidate()
	return s.snapshot()
}

// Defaults returns a copy of the seed list.
func (s *Store) Defaults() []transaction.Transaction {
	return copyList(s.opts.Defaults)
}

// Balance returns the sum of all values. The result is reused for the cache
// window unless a mutation happened in between.
func (s *Store) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	if s.balanceValid && now.Sub(s.balanceAt) < s.opts.CacheWindow {
		return s.balance
	}

	s.balance = Sum(s.records)
	s.balanceAt = now
	s.balanceValid = true
	return s.balance
}

// Sum adds values exactly and converts the total back to float64.
func Sum(list []transaction.Transaction) float64 {
	total := decimal.Zero
	for _, t := range list {
		total = total.Add(decimal.NewFromFloat(t.Value))
	}
	f, _ := total.Float64()
	return f
}

func (s *Store) invalidate() {
	s.balanceValid = false
	s.balanceAt = time.Time{}
}

func (s *Store) sanitize(v transaction.RawValue) float64 {
	f, ok := v.Float()
	if !ok {
		s.logger.WithField("value", string(v)).Warn("Store.sanitize.non-numeric value stored as 0")
	}
	return f
}

func (s *Store) indexOf(id transaction.ID) int {
	for i, t := range s.records {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []transaction.Transaction {
	return copyList(s.records)
}

func validateName(name *string, required bool) (string, error) {
	if name == nil {
		if required {
			return "", &ValidationError{Field: "name", Reason: "is required"}
		}
		return "", nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return trimmed, nil
}

func copyList(list []transaction.Transaction) []transaction.Transaction {
	out := make([]transaction.Transaction, len(list))
	copy(out, list)
	return out
}
