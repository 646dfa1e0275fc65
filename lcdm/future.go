package lcdm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-lcdm/internal/pool"
)

// Future is the result handle of a queued operation.
//
// It is resolved exactly once, by the dispatcher goroutine or by Device.Close.
// After resolution the value is always meaningful; the error is non-nil when
// the link failed, the device reported an unknown status code, or the device
// was closed before the operation ran.
type Future[T any] struct {
	done     chan struct{}
	resolved atomic.Bool
	value    T
	err      error

	// clone, when set, copies the value for each reader so results holding
	// maps or slices cannot be changed through another waiter.
	clone func(T) T
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func newFutureWithClone[T any](clone func(T) T) *Future[T] {
	return &Future[T]{done: make(chan struct{}), clone: clone}
}

// resolve stores the outcome and wakes up waiters. It returns false, and
// changes nothing, if the future was already resolved.
func (f *Future[T]) resolve(value T, err error) bool {
	if !f.resolved.CompareAndSwap(false, true) {
		return false
	}

	f.value = value
	f.err = err
	close(f.done)

	return true
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsResolved reports whether the result is available.
func (f *Future[T]) IsResolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.get()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WaitTimeout blocks until the future is resolved or d elapses,
// returning context.DeadlineExceeded on timeout.
func (f *Future[T]) WaitTimeout(d time.Duration) (T, error) {
	if f.IsResolved() {
		return f.get()
	}

	timer := pool.GetTimer(d)
	defer pool.PutTimer(timer)

	select {
	case <-f.done:
		return f.get()
	case <-timer.C:
		var zero T
		return zero, context.DeadlineExceeded
	}
}

// get returns the resolved outcome. It must only be called once done is closed.
func (f *Future[T]) get() (T, error) {
	if f.clone != nil {
		return f.clone(f.value), f.err
	}

	return f.value, f.err
}
