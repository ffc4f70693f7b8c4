package crossing

import (
	"context"
	"sync"
)

// SignalQueue is a mutex-and-condition guarded hand-off buffer carrying values
// from a single sender to any number of receivers.
//
// Receivers take the most recently sent value first (last in, first out - not
// FIFO). The intended use is as a latest-value mailbox: the sender calls Clear
// immediately before every Send, so the queue holds at most one value in
// steady state and a receiver can never be handed a value that predates the
// most recent Send.
type SignalQueue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []T
}

// NewSignalQueue returns an empty queue.
func NewSignalQueue[T any]() *SignalQueue[T] {
	q := &SignalQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send appends v and wakes one blocked receiver, if any. It never blocks and
// never fails.
func (q *SignalQueue[T]) Send(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, v)
	q.cond.Signal()
}

// Receive blocks until the queue is non-empty, then removes and returns the
// value at the tail: the most recently sent one. It blocks forever if nothing
// is ever sent; use ReceiveContext to be able to give up.
func (q *SignalQueue[T]) Receive() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	return q.pop()
}

// ReceiveContext is Receive that also ends when ctx does. A queued value wins
// over cancellation: if one is available it is returned even when ctx is
// already done.
func (q *SignalQueue[T]) ReceiveContext(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		// Wake everyone so the cancelled receiver can leave; the others
		// re-check the predicate and go back to waiting.
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		q.cond.Wait()
	}
	return q.pop(), nil
}

// Clear discards all queued values. Send, Receive and Clear all take the same
// lock, so a Clear ordered before a Send is fully applied before that Send's
// value becomes visible to any receiver.
func (q *SignalQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.items = q.items[:0]
}

// Len reports how many values are queued.
func (q *SignalQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pop removes and returns the tail. The caller must hold mu and the queue must
// be non-empty.
func (q *SignalQueue[T]) pop() T {
	last := len(q.items) - 1
	v := q.items[last]
	var zero T
	q.items[last] = zero
	q.items = q.items[:last]
	return v
}
