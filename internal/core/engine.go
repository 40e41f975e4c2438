// Package core wires the matching engine to the ambient stack: an
// append-only audit log and a read-through orderbook cache, neither of
// which the matching path depends on to be correct.
package core

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/vmartynenko/clob-engine/internal/domain"
	"github.com/vmartynenko/clob-engine/internal/matching"
	"github.com/vmartynenko/clob-engine/internal/port"
)

const cacheDepth = 5

// Engine is the service-layer façade transports are built on: it owns one
// matching.Engine for a single instrument and fans trades out to the audit
// repository and cache after each match.
type Engine struct {
	symbol string
	m      *matching.Engine
	repo   port.Repository
	cache  port.Cache

	mu          sync.Mutex
	tradesByOrd map[uint64][]*domain.Trade
}

func NewEngine(symbol string, workerCount int, repo port.Repository, cache port.Cache) *Engine {
	e := &Engine{
		symbol:      symbol,
		m:           matching.NewEngine(workerCount, nil),
		repo:        repo,
		cache:       cache,
		tradesByOrd: make(map[uint64][]*domain.Trade),
	}
	e.m.OnTrade(e.onTrade)
	return e
}

func (e *Engine) Start() { e.m.Start() }
func (e *Engine) Stop()  { e.m.Stop() }

// SubmitOrder matches order against the book synchronously and returns the
// resulting trades. This bypasses the asynchronous queue so HTTP/gRPC
// handlers can report fills in the same response.
func (e *Engine) SubmitOrder(ctx context.Context, o *domain.Order) ([]*domain.Trade, error) {
	o.Symbol = e.symbol
	trades := e.m.MatchNow(o)

	if e.repo != nil {
		if err := e.repo.SaveOrder(ctx, o); err != nil {
			log.Printf("core: audit SaveOrder failed for order %d: %v", o.ID, err)
		}
	}
	e.refreshCache(ctx)
	return trades, nil
}

// onTrade runs on the matching engine's own goroutine (worker or caller of
// MatchNow), after OrderBook's write lock has already been released.
func (e *Engine) onTrade(t *domain.Trade) {
	e.mu.Lock()
	e.tradesByOrd[t.BuyOrderID] = append(e.tradesByOrd[t.BuyOrderID], t)
	e.tradesByOrd[t.SellOrderID] = append(e.tradesByOrd[t.SellOrderID], t)
	e.mu.Unlock()

	if e.repo == nil {
		return
	}
	if err := e.repo.SaveTrade(context.Background(), t); err != nil {
		log.Printf("core: audit SaveTrade failed for trade %s: %v", t.ID, err)
	}
}

// GetOrder looks up a still-resting order by id.
func (e *Engine) GetOrder(orderID uint64) (*domain.Order, error) {
	o, ok := e.m.Book().Order(orderID)
	if !ok {
		return nil, errors.New("core: order not found or no longer resting")
	}
	return o, nil
}

// GetTradesForOrder returns the trades an order has participated in, in
// execution order (oldest first). This index lives only in process memory;
// rebuilding it from the audit log after a restart is out of scope (the
// persistence non-goal).
func (e *Engine) GetTradesForOrder(orderID uint64) []*domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*domain.Trade(nil), e.tradesByOrd[orderID]...)
}

// GetOrderbook returns the cached top-of-book snapshot if one is fresh,
// falling back to a live read off the book otherwise.
func (e *Engine) GetOrderbook(ctx context.Context) domain.BookSnapshot {
	if e.cache != nil {
		if snap, err := e.cache.GetOrderbook(ctx, e.symbol); err == nil && snap != nil {
			return *snap
		}
	}
	return e.m.Book().TopLevels(e.symbol, cacheDepth)
}

func (e *Engine) refreshCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	snap := e.m.Book().TopLevels(e.symbol, cacheDepth)
	if err := e.cache.SetOrderbook(ctx, e.symbol, snap); err != nil {
		log.Printf("core: cache refresh failed for %s: %v", e.symbol, err)
	}
}

func (e *Engine) Stats() matching.Stats {
	return e.m.Stats()
}
