package matching

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

func newLimit(side domain.Side, p string, qty int64) *domain.Order {
	return &domain.Order{Side: side, Type: domain.Limit, Price: price(p), Quantity: qty}
}

func TestEngine_SubmitFailsWhenStopped(t *testing.T) {
	e := NewEngine(1, nil)
	err := e.Submit(newLimit(domain.Buy, "100.00", 1))
	assert.ErrorIs(t, err, domain.ErrEngineStopped)
}

func TestEngine_StartStopIsIdempotent(t *testing.T) {
	e := NewEngine(1, nil)
	e.Start()
	e.Start()
	e.Stop()
	e.Stop()
}

func TestEngine_MatchNowWorksWhileStopped(t *testing.T) {
	e := NewEngine(1, nil)
	e.MatchNow(newLimit(domain.Buy, "100.00", 10))
	trades := e.MatchNow(newLimit(domain.Sell, "100.00", 10))
	require.Len(t, trades, 1)

	stats := e.Stats()
	assert.EqualValues(t, 2, stats.OrdersProcessed)
	assert.EqualValues(t, 1, stats.TradesExecuted)
	assert.EqualValues(t, 10, stats.QuantityTraded)
}

func TestEngine_OnTradeObserverFiresInOrder(t *testing.T) {
	e := NewEngine(1, nil)
	var mu sync.Mutex
	var seen []*domain.Trade
	e.OnTrade(func(tr *domain.Trade) {
		mu.Lock()
		seen = append(seen, tr)
		mu.Unlock()
	})

	e.MatchNow(newLimit(domain.Sell, "102.00", 5))
	e.MatchNow(newLimit(domain.Sell, "101.00", 5))
	e.MatchNow(newLimit(domain.Buy, "105.00", 10))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.EqualValues(t, 5, seen[0].Quantity)
	assert.EqualValues(t, 5, seen[1].Quantity)
	// Execution order: the 101.00 ask (id 2) is consumed before 102.00 (id 1).
	assert.EqualValues(t, 2, seen[0].SellOrderID)
	assert.EqualValues(t, 1, seen[1].SellOrderID)
}

// S6: concurrent ingestion determinism at worker_count=1, the trade log
// produced by submitting a fixed sequence through the queue matches the
// trade log produced by calling MatchNow directly on the same sequence.
func TestEngine_SingleWorkerDeterminism(t *testing.T) {
	sequence := func() []*domain.Order {
		return []*domain.Order{
			newLimit(domain.Buy, "100.00", 5),
			newLimit(domain.Buy, "100.00", 5),
			newLimit(domain.Sell, "100.00", 7),
			newLimit(domain.Sell, "99.00", 3),
		}
	}

	direct := NewEngine(1, nil)
	var directTrades []*domain.Trade
	for _, o := range sequence() {
		directTrades = append(directTrades, direct.MatchNow(o)...)
	}

	queued := NewEngine(1, nil)
	var mu sync.Mutex
	var queuedTrades []*domain.Trade
	var wg sync.WaitGroup
	queued.OnTrade(func(tr *domain.Trade) {
		mu.Lock()
		queuedTrades = append(queuedTrades, tr)
		mu.Unlock()
		wg.Done()
	})
	queued.Start()
	defer queued.Stop()

	wg.Add(len(directTrades))
	for _, o := range sequence() {
		require.NoError(t, queued.Submit(o))
	}
	wg.Wait()

	require.Equal(t, len(directTrades), len(queuedTrades))
	for i := range directTrades {
		assert.Equal(t, directTrades[i].BuyOrderID, queuedTrades[i].BuyOrderID)
		assert.Equal(t, directTrades[i].SellOrderID, queuedTrades[i].SellOrderID)
		assert.Equal(t, directTrades[i].Quantity, queuedTrades[i].Quantity)
		assert.True(t, directTrades[i].Price.Equal(queuedTrades[i].Price))
	}
}

func TestEngine_StopWaitsForWorkers(t *testing.T) {
	e := NewEngine(2, nil)
	e.Start()
	for i := 0; i < 20; i++ {
		require.NoError(t, e.Submit(newLimit(domain.Buy, "100.00", 1)))
	}
	e.Stop()
	assert.True(t, e.queue.Empty() || e.queue.shutdown)
	assert.EqualValues(t, 20, e.Stats().OrdersProcessed)
}

func TestMain_doesNotLeakGoroutines(t *testing.T) {
	// smoke test that repeated start/stop cycles settle cleanly.
	before := runtime.NumGoroutine()
	e := NewEngine(1, nil)
	for i := 0; i < 3; i++ {
		e.Start()
		require.NoError(t, e.Submit(newLimit(domain.Buy, "100.00", 1)))
		e.Stop()
	}
	time.Sleep(10 * time.Millisecond)
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}
