package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func limitOrder(id uint64, side domain.Side, p string, qty int64) *domain.Order {
	return &domain.Order{
		ID:        id,
		Side:      side,
		Type:      domain.Limit,
		Price:     price(p),
		Quantity:  qty,
		Timestamp: time.Now(),
		Status:    domain.New,
	}
}

func marketOrder(id uint64, side domain.Side, qty int64) *domain.Order {
	return &domain.Order{
		ID:        id,
		Side:      side,
		Type:      domain.Market,
		Quantity:  qty,
		Timestamp: time.Now(),
		Status:    domain.New,
	}
}

// S1: simple cross.
func TestOrderBook_SimpleCross(t *testing.T) {
	ob := NewOrderBook()

	trades := ob.AddOrder(limitOrder(1, domain.Buy, "100.00", 10))
	assert.Empty(t, trades)

	trades = ob.AddOrder(limitOrder(2, domain.Sell, "100.00", 10))
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.EqualValues(t, 1, tr.BuyOrderID)
	assert.EqualValues(t, 2, tr.SellOrderID)
	assert.True(t, tr.Price.Equal(price("100.00")))
	assert.EqualValues(t, 10, tr.Quantity)

	assert.Equal(t, 0, ob.BuyCount())
	assert.Equal(t, 0, ob.SellCount())
}

// S2: price priority, deeper (better-priced) resting order consumed first.
func TestOrderBook_PricePriority(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(limitOrder(1, domain.Sell, "102.00", 5))
	ob.AddOrder(limitOrder(2, domain.Sell, "101.00", 5))

	trades := ob.AddOrder(limitOrder(3, domain.Buy, "105.00", 10))
	require.Len(t, trades, 2)

	assert.EqualValues(t, 2, trades[0].SellOrderID)
	assert.True(t, trades[0].Price.Equal(price("101.00")))
	assert.EqualValues(t, 1, trades[1].SellOrderID)
	assert.True(t, trades[1].Price.Equal(price("102.00")))
}

// S3: time priority within a price level.
func TestOrderBook_TimePriority(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(limitOrder(1, domain.Buy, "100.00", 5))
	time.Sleep(time.Millisecond)
	ob.AddOrder(limitOrder(2, domain.Buy, "100.00", 5))

	trades := ob.AddOrder(limitOrder(3, domain.Sell, "100.00", 7))
	require.Len(t, trades, 2)
	assert.EqualValues(t, 1, trades[0].BuyOrderID)
	assert.EqualValues(t, 5, trades[0].Quantity)
	assert.EqualValues(t, 2, trades[1].BuyOrderID)
	assert.EqualValues(t, 2, trades[1].Quantity)

	resting, ok := ob.Order(2)
	require.True(t, ok)
	assert.EqualValues(t, 3, resting.Remaining())
}

// S4: limit order that does not cross rests without trading.
func TestOrderBook_LimitDoesNotCross(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(limitOrder(1, domain.Sell, "105.00", 10))

	trades := ob.AddOrder(limitOrder(2, domain.Buy, "100.00", 10))
	assert.Empty(t, trades)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(price("100.00")))
	ask, ok := ob.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(price("105.00")))
}

// S5: market order partial fill, unfilled remainder canceled, never rests.
func TestOrderBook_MarketPartialFill(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(limitOrder(1, domain.Sell, "100.00", 5))

	order := marketOrder(2, domain.Buy, 10)
	trades := ob.AddOrder(order)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 2, trades[0].BuyOrderID)
	assert.EqualValues(t, 1, trades[0].SellOrderID)
	assert.EqualValues(t, 5, trades[0].Quantity)

	assert.Equal(t, domain.Canceled, order.Status)
	assert.EqualValues(t, 5, order.FilledQuantity)
	assert.Equal(t, 0, ob.SellCount())
}

func TestOrderBook_RejectsZeroQuantity(t *testing.T) {
	ob := NewOrderBook()
	order := limitOrder(1, domain.Buy, "100.00", 0)
	trades := ob.AddOrder(order)
	assert.Empty(t, trades)
	assert.Equal(t, domain.Rejected, order.Status)
}

func TestOrder_FillRejectsOverfill(t *testing.T) {
	o := limitOrder(1, domain.Buy, "100.00", 5)
	assert.ErrorIs(t, o.Fill(6), domain.ErrInvalidFill)
	assert.EqualValues(t, 0, o.FilledQuantity)
	assert.ErrorIs(t, o.Fill(0), domain.ErrInvalidFill)
	assert.ErrorIs(t, o.Fill(-1), domain.ErrInvalidFill)
}

// No crossed rest book, checked across a mixed sequence.
func TestOrderBook_NeverCrossedAtRest(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(limitOrder(1, domain.Buy, "99.00", 5))
	ob.AddOrder(limitOrder(2, domain.Sell, "101.00", 5))
	ob.AddOrder(limitOrder(3, domain.Buy, "100.50", 3))

	bid, hasBid := ob.BestBid()
	ask, hasAsk := ob.BestAsk()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.True(t, bid.LessThan(ask))
}
