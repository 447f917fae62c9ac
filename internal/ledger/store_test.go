package ledger

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/kv"
	"github.com/carson-networks/ledger-server/internal/storage/local"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// downBackend fails every call.
type downBackend struct {
	saves int
}

var errDown = errors.New("connection refused")

func (*downBackend) Name() string { return "down" }
func (*downBackend) LoadAll(context.Context) ([]transaction.Record, error) {
	return nil, storage.Unavailable("load", errDown)
}
func (d *downBackend) SaveAll(context.Context, []transaction.Transaction) error {
	d.saves++
	return storage.Unavailable("save", errDown)
}
func (*downBackend) Append(context.Context, transaction.Transaction) ([]transaction.Transaction, error) {
	return nil, storage.Unavailable("append", errDown)
}
func (*downBackend) UpdateOne(context.Context, transaction.ID, transaction.Patch) ([]transaction.Transaction, error) {
	return nil, storage.Unavailable("update", errDown)
}
func (*downBackend) RemoveOne(context.Context, transaction.ID) ([]transaction.Transaction, error) {
	return nil, storage.Unavailable("remove", errDown)
}
func (*downBackend) Clear(context.Context) error { return storage.Unavailable("clear", errDown) }
func (*downBackend) Probe(context.Context) error { return storage.Unavailable("probe", errDown) }

func newLocal(t *testing.T, stored string) (*local.Backend, kv.Slot) {
	t.Helper()
	slot := kv.NewMemorySlot(kv.DefaultMaxBytes)
	if stored != "" {
		require.NoError(t, slot.Set(local.DefaultKey, []byte(stored)))
	}
	return local.New(slot, testLogger()), slot
}

func newTestStore(t *testing.T, backend storage.Backend) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts := DefaultOptions(testLogger())
	opts.Now = clock.Now
	return NewStore(backend, opts), clock
}

func TestLoad_SeedsDefaultsWhenEmpty(t *testing.T) {
	backend, slot := newLocal(t, "")
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTransactions(), list)
	assert.Equal(t, 5850.0, store.Balance())

	raw, err := slot.Get(local.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Salário","value":5000},{"id":2,"name":"Mercado","value":-350},{"id":3,"name":"Freelance","value":1200}]`, string(raw))
}

func TestLoad_CorruptSlotReseeds(t *testing.T) {
	backend, _ := newLocal(t, "{not json")
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTransactions(), list)
}

func TestLoad_EmptyArrayIsNotReseeded(t *testing.T) {
	backend, _ := newLocal(t, "[]")
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0.0, store.Balance())
}

func TestLoad_BackendDownUsesDefaults(t *testing.T) {
	backend := &downBackend{}
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrPersistenceUnavailable)
	assert.Equal(t, DefaultTransactions(), list)
	assert.Zero(t, backend.saves, "defaults are not written back to an unreachable backend")
}

func TestLoad_OnlyOnce(t *testing.T) {
	backend, slot := newLocal(t, `[{"id":7,"name":"Aluguel","value":-1500}]`)
	store, _ := newTestStore(t, backend)

	_, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, slot.Set(local.DefaultKey, []byte(`[]`)))

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []transaction.Transaction{{ID: 7, Name: "Aluguel", Value: -1500}}, list)
}

func TestLoad_MigratesLegacyAmount(t *testing.T) {
	backend, slot := newLocal(t, `[{"id":1,"name":"Salário","amount":5000},{"id":2,"name":"Mercado","value":-350}]`)
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []transaction.Transaction{
		{ID: 1, Name: "Salário", Value: 5000},
		{ID: 2, Name: "Mercado", Value: -350},
	}, list)

	raw, err := slot.Get(local.DefaultKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "amount")
}

func TestLoad_MigrationDisabledIgnoresAmount(t *testing.T) {
	stored := `[{"id":1,"name":"Salário","amount":5000}]`
	backend, slot := newLocal(t, stored)
	opts := DefaultOptions(testLogger())
	opts.MigrationEnabled = false
	store := NewStore(backend, opts)

	list, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []transaction.Transaction{{ID: 1, Name: "Salário", Value: 0}}, list)

	raw, err := slot.Get(local.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, stored, string(raw), "nothing written back")
}

func TestLoad_DuplicateIDsReassigned(t *testing.T) {
	backend, _ := newLocal(t, `[{"id":1,"name":"a","value":1},{"id":1,"name":"b","value":2},{"id":"3","name":"c","value":"3"}]`)
	store, _ := newTestStore(t, backend)

	list, err := store.Load(context.Background())
	require.NoError(t, err)

	ids := make([]transaction.ID, len(list))
	for i, tx := range list {
		ids[i] = tx.ID
	}
	assert.Equal(t, []transaction.ID{1, 4, 3}, ids, spew.Sdump(list))
}

func TestCreateUpdateDelete_Balance(t *testing.T) {
	backend, _ := newLocal(t, `[{"id":1,"name":"Salário","value":5000},{"id":2,"name":"Mercado","value":-350}]`)
	store, clock := newTestStore(t, backend)

	_, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4650.0, store.Balance())

	created, err := store.Create(transaction.NewDraft("Freelance", 1200))
	require.NoError(t, err)
	assert.Equal(t, transaction.Transaction{ID: 3, Name: "Freelance", Value: 1200}, created)
	assert.Equal(t, 5850.0, store.Balance(), "mutation invalidates the cache inside the window")

	value := transaction.Number(-1000)
	_, err = store.Update(2, transaction.Draft{Value: value})
	require.NoError(t, err)
	assert.Equal(t, 5200.0, store.Balance())

	clock.Advance(time.Second)
	_, err = store.Delete(3)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, store.Balance())

	next, err := store.Create(transaction.NewDraft("Bônus", 1000))
	require.NoError(t, err)
	assert.Equal(t, transaction.ID(4), next.ID, "deleted ids are not reused")
}

func TestBalance_CachedWithinWindow(t *testing.T) {
	backend, _ := newLocal(t, `[{"id":1,"name":"Salário","value":5000}]`)
	store, clock := newTestStore(t, backend)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5000.0, store.Balance())

	// Change the list behind the cache's back.
	store.records[0].Value = 1
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 5000.0, store.Balance())

	clock.Advance(60 * time.Millisecond)
	assert.Equal(t, 1.0, store.Balance())
}

func TestBalance_DecimalSum(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace([]transaction.Transaction{
		{ID: 1, Name: "a", Value: 0.1},
		{ID: 2, Name: "b", Value: 0.2},
	})
	assert.Equal(t, 0.3, store.Balance())
}

func TestCreate_Validation(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	blank := "   "

	tests := map[string]transaction.Draft{
		"missing name":  {Value: transaction.Number(10)},
		"blank name":    {Name: &blank, Value: transaction.Number(10)},
		"missing value": {Name: transaction.NewDraft("x", 0).Name},
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := store.Create(d)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, store.List())
		})
	}
}

func TestCreate_NonNumericValueStoredAsZero(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	name := "  Padaria  "

	created, err := store.Create(transaction.Draft{Name: &name, Value: transaction.Value("abc")})
	require.NoError(t, err)
	assert.Equal(t, "Padaria", created.Name)
	assert.Equal(t, 0.0, created.Value)
}

func TestCreate_ProposedID(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	d := transaction.NewDraft("Extra", 10)
	proposed := transaction.ID(42)
	d.ID = &proposed
	created, err := store.Create(d)
	require.NoError(t, err)
	assert.Equal(t, transaction.ID(42), created.ID)

	taken := transaction.ID(1)
	d.ID = &taken
	created, err = store.Create(d)
	require.NoError(t, err)
	assert.Equal(t, transaction.ID(43), created.ID)
}

func TestCreate_DeletedIDNotReused(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	_, err := store.Delete(2)
	require.NoError(t, err)

	d := transaction.NewDraft("Mercado", -80)
	deleted := transaction.ID(2)
	d.ID = &deleted
	created, err := store.Create(d)
	require.NoError(t, err)
	assert.Equal(t, transaction.ID(4), created.ID)
}

func TestCreate_ProposedIDOutOfRangeIgnored(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	for _, proposed := range []transaction.ID{math.MaxInt64, MaxProposedID + 1, -5} {
		d := transaction.NewDraft("Extra", 1)
		d.ID = &proposed
		_, err := store.Create(d)
		require.NoError(t, err)
	}

	ids := []transaction.ID{}
	for _, tx := range store.List() {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []transaction.ID{1, 2, 3, 4, 5, 6}, ids)
}

func TestCreate_IDSpaceExhausted(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace([]transaction.Transaction{{ID: math.MaxInt64, Name: "Último", Value: 1}})

	_, err := store.Create(transaction.NewDraft("Mais um", 1))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, store.List(), 1)
}

func TestReplace_DuplicateAtTopOfRange(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})

	list := store.Replace([]transaction.Transaction{
		{ID: math.MaxInt64, Name: "a", Value: 1},
		{ID: math.MaxInt64, Name: "b", Value: 2},
	})

	require.Len(t, list, 2)
	assert.Equal(t, transaction.ID(math.MaxInt64), list[0].ID)
	assert.Equal(t, transaction.ID(1), list[1].ID)
}

// Huge exponents must be rejected quickly, without holding up other callers.
func TestCreate_HugeExponentStoredAsZero(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	type result struct {
		created transaction.Transaction
		err     error
	}
	done := make(chan result, 1)
	go func() {
		name := "Enorme"
		created, err := store.Create(transaction.Draft{Name: &name, Value: transaction.Value("1e900000000")})
		done <- result{created, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 0.0, res.created.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("create did not return")
	}

	updated, err := store.Update(1, transaction.Draft{Value: transaction.Value("-1e400")})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Value)
	assert.Equal(t, 850.0, store.Balance())
}

func TestUpdateDelete_NotFound(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	_, err := store.Update(99, transaction.NewDraft("x", 1))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Delete(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.List(), 3)
}

func TestUpdate_Partial(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())
	name := "Supermercado"

	updated, err := store.Update(2, transaction.Draft{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, transaction.Transaction{ID: 2, Name: "Supermercado", Value: -350}, updated)
}

func TestList_ReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t, &downBackend{})
	store.Replace(DefaultTransactions())

	list := store.List()
	list[0].Name = "changed"
	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Salário", got.Name)
}
