package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Op names the kind of change an Event reports.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
	OpClear   Op = "clear"
)

// Event is delivered to observers after every successful change.
type Event struct {
	Op       Op
	Mutation ledger.Mutation
}

// Observer is notified of ledger changes, synchronously, on the goroutine
// that made the change.
type Observer interface {
	TransactionsChanged(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) TransactionsChanged(e Event) { f(e) }

// Statistics summarises the ledger.
type Statistics struct {
	Count         int     `json:"count"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	Balance       float64 `json:"balance"`
	Average       float64 `json:"average"`
}

// Coordinator is the single entry point for reading and changing the ledger.
// Changes go through a one-worker operator queue, so each store change and
// its write-through happen in arrival order.
type Coordinator struct {
	store     *ledger.Store
	backend   storage.Backend
	delegator *operator.OperatorDelegator
	logger    *logrus.Entry

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// NewCoordinator builds a coordinator over backend. Call Start before use.
func NewCoordinator(backend storage.Backend, opts ledger.Options) *Coordinator {
	store := ledger.NewStore(backend, opts)
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Coordinator{
		store:     store,
		backend:   backend,
		delegator: operator.NewOperatorDelegator(ledger.NewWriter(store, backend), 1),
		logger:    logger.WithFields(logrus.Fields{"component": "coordinator", "backend": backend.Name()}),
		observers: make(map[int]Observer),
	}
}

// Start loads the ledger and starts the change queue. The returned error only
// reports degraded storage; the coordinator is usable either way.
func (c *Coordinator) Start(ctx context.Context) error {
	c.delegator.Start()
	_, err := c.store.Load(ctx)
	return err
}

// Close stops the change queue after pending changes are applied.
func (c *Coordinator) Close() {
	c.delegator.Stop()
}

func (c *Coordinator) BackendName() string {
	return c.backend.Name()
}

// Health checks that the backend is reachable right now.
func (c *Coordinator) Health(ctx context.Context) error {
	return c.backend.Probe(ctx)
}

// Subscribe registers o and returns a function that removes it.
func (c *Coordinator) Subscribe(o Observer) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	id := c.nextObs
	c.nextObs++
	c.observers[id] = o

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Coordinator) notify(op Op, m ledger.Mutation) {
	c.obsMu.Lock()
	observers := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.obsMu.Unlock()

	for _, o := range observers {
		o.TransactionsChanged(Event{Op: op, Mutation: m})
	}
}

func (c *Coordinator) finish(op Op, m ledger.Mutation) ledger.Mutation {
	if m.Warning != nil {
		c.logger.WithError(m.Warning).WithField("op", op).Warn("Coordinator.change not persisted")
	}
	c.notify(op, m)
	return m
}

// GetAll returns every transaction in insertion order.
func (c *Coordinator) GetAll() []transaction.Transaction {
	return c.store.List()
}

func (c *Coordinator) Get(id transaction.ID) (transaction.Transaction, error) {
	return c.store.Get(id)
}

func (c *Coordinator) Create(ctx context.Context, d transaction.Draft) (ledger.Mutation, error) {
	action := &actions.CreateTransaction{Draft: d}
	if err := c.delegator.Process(ctx, action); err != nil {
		return ledger.Mutation{}, err
	}

	c.logger.WithField("transactionID", action.Result.Record.ID).Info("Coordinator.Create.created")
	return c.finish(OpCreate, action.Result), nil
}

func (c *Coordinator) Update(ctx context.Context, id transaction.ID, d transaction.Draft) (ledger.Mutation, error) {
	action := &actions.UpdateTransaction{ID: id, Draft: d}
	if err := c.delegator.Process(ctx, action); err != nil {
		return ledger.Mutation{}, err
	}

	c.logger.WithField("transactionID", id).Info("Coordinator.Update.updated")
	return c.finish(OpUpdate, action.Result), nil
}

func (c *Coordinator) Delete(ctx context.Context, id transaction.ID) (ledger.Mutation, error) {
	action := &actions.DeleteTransaction{ID: id}
	if err := c.delegator.Process(ctx, action); err != nil {
		return ledger.Mutation{}, err
	}

	c.logger.WithField("transactionID", id).Info("Coordinator.Delete.deleted")
	return c.finish(OpDelete, action.Result), nil
}

func (c *Coordinator) Balance() float64 {
	return c.store.Balance()
}

// Search returns transactions whose name contains term, ignoring case. An
// empty term matches everything.
func (c *Coordinator) Search(term string) []transaction.Transaction {
	needle := strings.ToLower(term)
	matches := []transaction.Transaction{}
	for _, t := range c.store.List() {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			matches = append(matches, t)
		}
	}
	return matches
}

func (c *Coordinator) FilterByType(kind transaction.Kind) []transaction.Transaction {
	matches := []transaction.Transaction{}
	for _, t := range c.store.List() {
		if kind.Matches(t) {
			matches = append(matches, t)
		}
	}
	return matches
}

// Statistics is recomputed on every call. Expenses are reported as a
// positive total.
func (c *Coordinator) Statistics() Statistics {
	list := c.store.List()

	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range list {
		v := decimal.NewFromFloat(t.Value)
		if t.Value > 0 {
			income = income.Add(v)
		} else if t.Value < 0 {
			expenses = expenses.Add(v.Abs())
		}
	}
	balance := income.Sub(expenses)

	stats := Statistics{Count: len(list)}
	stats.TotalIncome, _ = income.Float64()
	stats.TotalExpenses, _ = expenses.Float64()
	stats.Balance, _ = balance.Float64()
	if len(list) > 0 {
		stats.Average, _ = balance.Div(decimal.NewFromInt(int64(len(list)))).Float64()
	}
	return stats
}

// Export renders the ledger as indented JSON.
func (c *Coordinator) Export() ([]byte, error) {
	data, err := json.MarshalIndent(c.store.List(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transactions: %w", err)
	}
	return data, nil
}

// Import replaces the ledger with the JSON array in data. Legacy records are
// migrated; a record without a name rejects the whole import.
func (c *Coordinator) Import(ctx context.Context, data []byte) (ledger.Mutation, error) {
	var records []transaction.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return ledger.Mutation{}, &ledger.ValidationError{Field: "data", Reason: "must be a JSON array of transactions: " + err.Error()}
	}

	list, _ := ledger.Migrate(records)
	for i := range list {
		name := strings.TrimSpace(list[i].Name)
		if name == "" {
			return ledger.Mutation{}, &ledger.ValidationError{Field: fmt.Sprintf("[%d].name", i), Reason: "must not be empty"}
		}
		list[i].Name = name
	}

	return c.replace(ctx, &actions.ReplaceTransactions{List: list})
}

// Reset replaces the ledger with the default seed.
func (c *Coordinator) Reset(ctx context.Context) (ledger.Mutation, error) {
	return c.replace(ctx, &actions.ReplaceTransactions{List: c.store.Defaults()})
}

// Clear empties the ledger and removes the stored copy.
func (c *Coordinator) Clear(ctx context.Context) (ledger.Mutation, error) {
	return c.replace(ctx, &actions.ReplaceTransactions{Clear: true})
}

func (c *Coordinator) replace(ctx context.Context, action *actions.ReplaceTransactions) (ledger.Mutation, error) {
	if err := c.delegator.Process(ctx, action); err != nil {
		return ledger.Mutation{}, err
	}

	op := OpReplace
	if action.Clear {
		op = OpClear
	}
	c.logger.WithFields(logrus.Fields{"op": op, "count": len(action.Result.Records)}).Info("Coordinator.replace.replaced")
	return c.finish(op, action.Result), nil
}
