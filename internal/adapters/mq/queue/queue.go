// Package queue defines the bounded in-memory queue that feeds batch
// assessments to the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Item is the payload flowing through the queue.
type Item = model.Assessment

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an item. It returns ErrFull or ErrClosed when the item
	// was not accepted; callers surface that as backpressure.
	Enqueue(ctx context.Context, it Item) error

	// Dequeue returns a channel that yields items until the queue is
	// closed and drained or ctx is done.
	Dequeue(ctx context.Context) <-chan Item

	Len() int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds an item without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) error { //nolint:gocritic // hugeParam: items travel by value over the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejection("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejection("context_cancelled")
		return err
	}

	select {
	case q.items <- it:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueRejection("full")
		return ErrFull
	}
}

// Dequeue returns a channel of items.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case it, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- it:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of queued items.
func (q *InMemoryQueue) Len() int { return len(q.items) }

// Capacity returns the maximum number of queued items.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting items. Queued items are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
