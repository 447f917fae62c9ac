package operator

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
)

// Operator is the worker that processes items from the queue.
type Operator struct {
	writer *ledger.Writer
	queue  chan ActionItem
}

func NewOperator(w *ledger.Writer, queue chan ActionItem) *Operator {
	return &Operator{
		writer: w,
		queue:  queue,
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		o.processItem(item)
	}
}

func (o *Operator) processItem(item ActionItem) {
	// The caller gave up before the change started; leave the ledger alone.
	if err := item.ctx.Err(); err != nil {
		item.response <- ActionItemResponse{err: err}
		return
	}

	// Once started, a change runs to completion so the caller always learns
	// its outcome.
	err := item.action.Perform(context.WithoutCancel(item.ctx), o.writer)
	item.response <- ActionItemResponse{err: err}
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}
