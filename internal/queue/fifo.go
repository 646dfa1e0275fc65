// Package queue provides the FIFO container used to hold pending device operations.
package queue

// FIFO is a first-in, first-out queue backed by a slice.
//
// It is NOT goroutine-safe; callers guard it with their own lock.
type FIFO[T any] struct {
	items []T
	head  int
}

// NewFIFO creates a FIFO with room for prealloc items before growing.
func NewFIFO[T any](prealloc int) *FIFO[T] {
	return &FIFO[T]{items: make([]T, 0, prealloc)}
}

// Push appends an item to the tail of the queue.
func (q *FIFO[T]) Push(item T) {
	// reclaim the consumed prefix once it dominates the backing array
	if q.head > 0 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	q.items = append(q.items, item)
}

// Pop removes and returns the item at the head of the queue.
// The second return value is false if the queue is empty.
func (q *FIFO[T]) Pop() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}

	return item, true
}

// Peek returns the item at the head of the queue without removing it.
func (q *FIFO[T]) Peek() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	return q.items[q.head], true
}

// Drain removes and returns all queued items in FIFO order.
func (q *FIFO[T]) Drain() []T {
	out := make([]T, 0, q.Len())
	for {
		item, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// Len returns the number of items in the queue.
func (q *FIFO[T]) Len() int {
	return len(q.items) - q.head
}

// IsEmpty returns true if the queue is empty.
func (q *FIFO[T]) IsEmpty() bool {
	return q.Len() == 0
}
