// Package pool provides pooled timers for the bounded waits of the dispatcher
// and of result handles.
package pool

import (
	"sync"
	"time"
)

var timerPool = sync.Pool{}

// GetTimer returns a timer armed for duration d, reusing a pooled one when available.
//
// Return the timer to the pool with PutTimer once it is no longer used.
func GetTimer(d time.Duration) *time.Timer {
	t, ok := timerPool.Get().(*time.Timer)
	if !ok {
		return time.NewTimer(d)
	}

	// Since Go 1.23 Reset discards any stale expiry, no manual drain is needed.
	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool.
//
// t cannot be accessed after returning to the pool.
func PutTimer(t *time.Timer) {
	t.Stop()
	timerPool.Put(t)
}
