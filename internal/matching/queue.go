package matching

import (
	"container/list"
	"sync"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

// OrderQueue is a multi-producer, multi-consumer FIFO handoff buffer that
// decouples submission latency from matching latency. Grounded on
// original_source/include/engine/OrderQueue.hpp's mutex+condition-variable
// design, translated to sync.Mutex/sync.Cond.
type OrderQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    *list.List
	shutdown bool
}

func NewOrderQueue() *OrderQueue {
	q := &OrderQueue{items: list.New()}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds order to the tail and wakes one waiting consumer. It is a
// no-op once Shutdown has been called: orders submitted after draining
// starts are silently dropped rather than queued.
func (q *OrderQueue) Enqueue(order *domain.Order) {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.items.PushBack(order)
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// TryDequeue returns the head order without blocking, or (nil, false) if
// the queue is currently empty.
func (q *OrderQueue) TryDequeue() (*domain.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Dequeue blocks until an order is available or the queue has been shut
// down and drained, in which case it returns (nil, false). Orders enqueued
// before Shutdown remain observable here until drained.
func (q *OrderQueue) Dequeue() (*domain.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Len() == 0 && !q.shutdown {
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

func (q *OrderQueue) popLocked() (*domain.Order, bool) {
	front := q.items.Front()
	if front == nil {
		return nil, false
	}
	q.items.Remove(front)
	return front.Value.(*domain.Order), true
}

// Shutdown is idempotent and transitions the queue to drain-and-exit mode,
// waking every blocked consumer.
func (q *OrderQueue) Shutdown() {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

func (q *OrderQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len() == 0
}

func (q *OrderQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
