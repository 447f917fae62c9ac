package operator

import (
	"context"
	"errors"
	"sync"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
)

// ErrStopped is returned by Process once the delegator has been stopped.
var ErrStopped = errors.New("operator stopped")

// OperatorDelegator manages the queue, starts/stops Operators (workers), and enqueues items.
// Ledger changes are order sensitive, so a single worker is the usual setup.
type OperatorDelegator struct {
	writer     *ledger.Writer
	queue      chan ActionItem
	numWorkers int
	wg         sync.WaitGroup

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

func NewOperatorDelegator(w *ledger.Writer, numWorkers int) *OperatorDelegator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &OperatorDelegator{
		writer:     w,
		queue:      make(chan ActionItem, 1000),
		numWorkers: numWorkers,
	}
}

func (d *OperatorDelegator) Start() {
	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		op := NewOperator(d.writer, d.queue)
		go func() {
			defer d.wg.Done()
			op.Run()
		}()
	}
}

// Stop drains the queue and waits for the workers to exit.
func (d *OperatorDelegator) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Process enqueues action and waits for its outcome. A cancelled ctx stops an
// action that has not started yet; an action already running is waited for.
func (d *OperatorDelegator) Process(ctx context.Context, action actions.IAction) error {
	respCh := make(chan ActionItemResponse, 1)
	item := ActionItem{
		ctx:      ctx,
		action:   action,
		response: respCh,
	}

	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		return ErrStopped
	}
	select {
	case d.queue <- item:
	case <-ctx.Done():
		d.mu.RUnlock()
		return ctx.Err()
	}
	d.mu.RUnlock()

	resp := <-respCh
	return resp.err
}
