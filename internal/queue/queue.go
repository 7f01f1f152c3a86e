// Package queue holds the small generic containers used across the engine:
// a bounded batching queue for background writers and an insertion-ordered
// set for per-actor marker tracking.
package queue

import "sync"

// Queue is a thread-safe FIFO. Producers push from the host context and a
// background writer drains it in batches. With a limit set, a full queue
// discards its oldest items so producers never block.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New creates a queue holding at most limit items. Zero means unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: max(limit, 0)}
}

// Push appends items and returns how many old items were discarded to make room.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	return q.trim()
}

// Requeue puts a batch that failed to write back in front of newer items.
func (q *Queue[T]) Requeue(items []T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
	return q.trim()
}

func (q *Queue[T]) trim() int {
	if q.limit == 0 || len(q.items) <= q.limit {
		return 0
	}
	n := len(q.items) - q.limit
	q.items = append(q.items[:0:0], q.items[n:]...)
	q.dropped += uint64(n)
	return n
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns the total number of items discarded by the limit.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Drain removes and returns every queued item, oldest first.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
