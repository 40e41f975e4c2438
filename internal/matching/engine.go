package matching

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

// Stats is a point-in-time snapshot of the engine's monotonic counters.
type Stats struct {
	OrdersProcessed uint64
	TradesExecuted  uint64
	QuantityTraded  uint64
}

// Observer is invoked synchronously, once per trade, in execution order.
// It must not call back into the Engine on the same goroutine. The book's
// lock is already released when observers run, but a nested MatchNow would
// deliver its own trades to every observer before the rest of the current
// batch, so observers would no longer see trades in execution order.
type Observer func(*domain.Trade)

// Engine starts and stops a pool of matcher workers that drain an
// OrderQueue into an OrderBook, and exposes both asynchronous (Submit) and
// synchronous (MatchNow) entry points.
type Engine struct {
	book  *OrderBook
	queue *OrderQueue
	ids   IDGenerator

	lifecycleMu sync.Mutex
	running     bool
	wg          sync.WaitGroup
	workerCount int

	observersMu sync.Mutex
	observers   []Observer

	ordersProcessed uint64
	tradesExecuted  uint64
	quantityTraded  uint64
}

// NewEngine configures an engine with workerCount matcher workers. A
// workerCount of 1 (the default most callers want) gives FIFO
// submission-to-match ordering; ordering across producers is not
// guaranteed once workerCount > 1.
func NewEngine(workerCount int, ids IDGenerator) *Engine {
	if workerCount < 1 {
		workerCount = 1
	}
	if ids == nil {
		ids = NewAtomicIDGenerator()
	}
	return &Engine{
		book:        NewOrderBook(),
		queue:       NewOrderQueue(),
		ids:         ids,
		workerCount: workerCount,
	}
}

// Start is idempotent: spawns workerCount matcher workers, each looping
// dequeue -> MatchNow.
func (e *Engine) Start() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if e.running {
		return
	}
	e.running = true
	// Stop leaves the queue shut down (and drained); a restarted engine
	// gets a fresh one, or every Submit after the restart would be dropped.
	e.queue.mu.Lock()
	closed := e.queue.shutdown
	e.queue.mu.Unlock()
	if closed {
		e.queue = NewOrderQueue()
	}
	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.workerLoop()
	}
}

// Stop is idempotent and synchronous: it signals the queue to drain and
// does not return until every worker has joined, including waiting out
// any in-flight MatchNow call a worker is partway through.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	if !e.running {
		e.lifecycleMu.Unlock()
		return
	}
	e.running = false
	e.lifecycleMu.Unlock()

	e.queue.Shutdown()
	e.wg.Wait()
}

func (e *Engine) workerLoop() {
	defer e.wg.Done()
	for {
		order, ok := e.queue.Dequeue()
		if !ok {
			return
		}
		e.runWorkerSafely(order)
	}
}

// runWorkerSafely recovers from a panic inside a single MatchNow call so a
// defect in one order's processing cannot silently kill the worker: it
// logs and the worker keeps draining the queue.
func (e *Engine) runWorkerSafely(order *domain.Order) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("matching: worker recovered from panic processing order %d: %v", order.ID, r)
		}
	}()
	e.MatchNow(order)
}

// Submit enqueues order for asynchronous matching. It fails if the engine
// is not running.
func (e *Engine) Submit(order *domain.Order) error {
	e.lifecycleMu.Lock()
	running := e.running
	e.lifecycleMu.Unlock()
	if !running {
		return fmt.Errorf("matching: submit order %d: %w", order.ID, domain.ErrEngineStopped)
	}
	e.prepare(order)
	e.queue.Enqueue(order)
	return nil
}

// MatchNow synchronously matches order against the book, bypassing the
// queue. It is valid whether or not the engine is running and updates
// statistics and observers exactly as a queued match would.
func (e *Engine) MatchNow(order *domain.Order) []*domain.Trade {
	e.prepare(order)

	trades := e.book.AddOrder(order)

	atomic.AddUint64(&e.ordersProcessed, 1)
	if len(trades) > 0 {
		atomic.AddUint64(&e.tradesExecuted, uint64(len(trades)))
		var qty uint64
		for _, t := range trades {
			qty += uint64(t.Quantity)
		}
		atomic.AddUint64(&e.quantityTraded, qty)
	}

	e.dispatch(trades)
	return trades
}

func (e *Engine) prepare(order *domain.Order) {
	if order.ID == 0 {
		order.ID = e.ids.NextID()
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = time.Now()
	}
}

// dispatch fans trades out to observers after the book's write lock has
// already been released by AddOrder: an observer that calls back into the
// engine is not reentering a held lock.
func (e *Engine) dispatch(trades []*domain.Trade) {
	if len(trades) == 0 {
		return
	}
	e.observersMu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.observersMu.Unlock()

	for _, trade := range trades {
		for _, obs := range observers {
			obs(trade)
		}
	}
}

// OnTrade registers an observer invoked synchronously for each trade, in
// execution order. Multiple observers may be registered; each runs for
// every trade.
func (e *Engine) OnTrade(obs Observer) {
	e.observersMu.Lock()
	defer e.observersMu.Unlock()
	e.observers = append(e.observers, obs)
}

// Book returns read-only access to the order book.
func (e *Engine) Book() *OrderBook {
	return e.book
}

func (e *Engine) Stats() Stats {
	return Stats{
		OrdersProcessed: atomic.LoadUint64(&e.ordersProcessed),
		TradesExecuted:  atomic.LoadUint64(&e.tradesExecuted),
		QuantityTraded:  atomic.LoadUint64(&e.quantityTraded),
	}
}
