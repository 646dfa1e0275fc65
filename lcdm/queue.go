package lcdm

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/go-lcdm/internal/pool"
	"github.com/arloliu/go-lcdm/internal/queue"
)

// operationQueue holds operations waiting for the dispatcher.
//
// Producers push under mu; the dispatcher is the only consumer. notify has a
// buffer of one so a push never blocks and a wake-up is never lost.
type operationQueue struct {
	mu     sync.Mutex
	items  *queue.FIFO[operation]
	closed bool
	notify chan struct{}
}

func newOperationQueue(size int) *operationQueue {
	return &operationQueue{
		items:  queue.NewFIFO[operation](size),
		notify: make(chan struct{}, 1),
	}
}

// push appends op and returns the queue length, or ErrDeviceClosed once closed.
func (q *operationQueue) push(op operation) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrDeviceClosed
	}

	q.items.Push(op)
	n := q.items.Len()
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return n, nil
}

// tryPop removes the head operation without waiting.
func (q *operationQueue) tryPop() (operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Pop()
}

// wait returns the next operation, or nil if none arrived within idle or ctx is done.
func (q *operationQueue) wait(ctx context.Context, idle time.Duration) operation {
	if op, ok := q.tryPop(); ok {
		return op
	}

	timer := pool.GetTimer(idle)
	defer pool.PutTimer(timer)

	select {
	case <-q.notify:
		op, _ := q.tryPop()
		return op
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// close rejects further pushes and returns the operations still queued, in order.
func (q *operationQueue) close() []operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true

	return q.items.Drain()
}

func (q *operationQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len()
}
