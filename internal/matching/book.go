package matching

import (
	"container/list"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

// priceLevel is a FIFO queue of resting orders at one price. Head removal
// is O(1) via container/list; the level itself is what best_bid/best_ask
// return in O(1) once located.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List // of *domain.Order
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

type location struct {
	side  domain.Side
	level *priceLevel
	elem  *list.Element
}

// OrderBook is the price-time priority book for one instrument. bids are
// kept sorted highest-price-first, asks lowest-price-first; each side is a
// slice of price levels located by binary search (O(log P) where P is the
// number of distinct price levels, not the number of resting orders) with
// O(1) access to the best level via index 0.
type OrderBook struct {
	mu   sync.RWMutex
	bids []*priceLevel
	asks []*priceLevel

	index map[uint64]*location
}

func NewOrderBook() *OrderBook {
	return &OrderBook{index: make(map[uint64]*location)}
}

// AddOrder admits order, matches it against the opposite side to the
// extent its type and price permit, then rests any unfilled limit
// remainder. It never panics on invalid input; invalid orders come back
// Rejected with an empty trade slice and the book left untouched.
func (ob *OrderBook) AddOrder(order *domain.Order) []*domain.Trade {
	if order.Quantity <= 0 {
		order.Status = domain.Rejected
		return nil
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	order.Status = domain.New

	var trades []*domain.Trade
	if order.Side == domain.Buy {
		trades = ob.match(order, &ob.asks, func(incoming, restingPrice decimal.Decimal) bool {
			return incoming.LessThan(restingPrice) // stop: incoming buy below ask
		})
	} else {
		trades = ob.match(order, &ob.bids, func(incoming, restingPrice decimal.Decimal) bool {
			return incoming.GreaterThan(restingPrice) // stop: incoming sell above bid
		})
	}

	if order.Type == domain.Market {
		if order.Remaining() > 0 {
			order.Cancel()
		}
		return trades
	}

	if order.Remaining() > 0 && order.Status != domain.Canceled {
		ob.rest(order)
	}
	return trades
}

// match walks the opposite side consuming liquidity. stop reports whether
// the incoming limit order's price no longer crosses the resting level's
// price; it is never consulted for market orders.
func (ob *OrderBook) match(order *domain.Order, opposite *[]*priceLevel, stop func(incoming, restingPrice decimal.Decimal) bool) []*domain.Trade {
	var trades []*domain.Trade

	for order.Remaining() > 0 && len(*opposite) > 0 {
		level := (*opposite)[0]
		if order.Type == domain.Limit && stop(order.Price, level.price) {
			break
		}

		front := level.orders.Front()
		resting := front.Value.(*domain.Order)

		qty := order.Remaining()
		if resting.Remaining() < qty {
			qty = resting.Remaining()
		}

		// Execution price is the resting order's price: price improvement
		// accrues to the incoming aggressor.
		if err := order.Fill(qty); err != nil {
			break
		}
		if err := resting.Fill(qty); err != nil {
			break
		}

		buyID, sellID := order.ID, resting.ID
		if order.Side == domain.Sell {
			buyID, sellID = resting.ID, order.ID
		}
		trades = append(trades, &domain.Trade{
			ID:          uuid.NewString(),
			Symbol:      order.Symbol,
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			Price:       level.price,
			Quantity:    qty,
			Timestamp:   time.Now(),
		})

		if resting.Remaining() == 0 {
			level.orders.Remove(front)
			delete(ob.index, resting.ID)
			if level.orders.Len() == 0 {
				*opposite = (*opposite)[1:]
			}
		}
	}

	return trades
}

// rest inserts order into its own side. Must be called with mu held.
// Within a level, orders are kept in (timestamp, id) order. A new arrival
// normally carries the latest timestamp and lands at the tail in O(1); an
// order stamped earlier but admitted later (several workers, concurrent
// MatchNow callers, or caller-assigned ids) is walked back to its place.
func (ob *OrderBook) rest(order *domain.Order) {
	var side *[]*priceLevel
	if order.Side == domain.Buy {
		side = &ob.bids
	} else {
		side = &ob.asks
	}

	i, found := ob.locateLevel(*side, order.Side, order.Price)
	var level *priceLevel
	if found {
		level = (*side)[i]
	} else {
		level = newPriceLevel(order.Price)
		*side = append(*side, nil)
		copy((*side)[i+1:], (*side)[i:])
		(*side)[i] = level
	}

	var elem *list.Element
	for e := level.orders.Back(); e != nil; e = e.Prev() {
		r := e.Value.(*domain.Order)
		if r.Timestamp.Before(order.Timestamp) || (r.Timestamp.Equal(order.Timestamp) && r.ID < order.ID) {
			elem = level.orders.InsertAfter(order, e)
			break
		}
	}
	if elem == nil {
		elem = level.orders.PushFront(order)
	}
	ob.index[order.ID] = &location{side: order.Side, level: level, elem: elem}
}

// locateLevel returns the index at which a level for price sits (or should
// be inserted) via binary search: O(log P) for P distinct price levels.
func (ob *OrderBook) locateLevel(levels []*priceLevel, side domain.Side, price decimal.Decimal) (int, bool) {
	var i int
	if side == domain.Buy {
		// bids: descending by price
		i = sort.Search(len(levels), func(i int) bool { return !levels[i].price.GreaterThan(price) })
	} else {
		// asks: ascending by price
		i = sort.Search(len(levels), func(i int) bool { return !levels[i].price.LessThan(price) })
	}
	if i < len(levels) && levels[i].price.Equal(price) {
		return i, true
	}
	return i, false
}

// BestBid returns the highest resting buy price, if any.
func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if len(ob.bids) == 0 {
		return decimal.Zero, false
	}
	return ob.bids[0].price, true
}

// BestAsk returns the lowest resting sell price, if any.
func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if len(ob.asks) == 0 {
		return decimal.Zero, false
	}
	return ob.asks[0].price, true
}

func (ob *OrderBook) BuyCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return countOrders(ob.bids)
}

func (ob *OrderBook) SellCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return countOrders(ob.asks)
}

func countOrders(levels []*priceLevel) int {
	n := 0
	for _, l := range levels {
		n += l.orders.Len()
	}
	return n
}

// Order looks up a resting order by id in O(1), for diagnostics and tests.
func (ob *OrderBook) Order(id uint64) (*domain.Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	loc, ok := ob.index[id]
	if !ok {
		return nil, false
	}
	return loc.elem.Value.(*domain.Order), true
}

// Snapshot renders up to the top five price levels of each side as aligned
// columns for human inspection. This is not a stable, parseable format.
func (ob *OrderBook) Snapshot() string {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%-16s | %-16s\n", "BID", "ASK")
	for i := 0; i < 5; i++ {
		b.WriteString(fmt.Sprintf("%-16s | %-16s\n", levelString(ob.bids, i), levelString(ob.asks, i)))
	}
	return b.String()
}

// TopLevels renders up to depth price levels per side as a serializable
// snapshot, for the read-through cache and read-only API responses. It is
// not consulted anywhere in the matching path.
func (ob *OrderBook) TopLevels(symbol string, depth int) domain.BookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	snap := domain.BookSnapshot{Symbol: symbol}
	for i := 0; i < depth && i < len(ob.bids); i++ {
		snap.Bids = append(snap.Bids, levelView(ob.bids[i]))
	}
	for i := 0; i < depth && i < len(ob.asks); i++ {
		snap.Asks = append(snap.Asks, levelView(ob.asks[i]))
	}
	return snap
}

func levelView(l *priceLevel) domain.PriceLevelView {
	var qty int64
	for e := l.orders.Front(); e != nil; e = e.Next() {
		qty += e.Value.(*domain.Order).Remaining()
	}
	return domain.PriceLevelView{Price: l.price, Quantity: qty}
}

func levelString(levels []*priceLevel, i int) string {
	if i >= len(levels) {
		return "-"
	}
	l := levels[i]
	qty := int64(0)
	for e := l.orders.Front(); e != nil; e = e.Next() {
		qty += e.Value.(*domain.Order).Remaining()
	}
	return fmt.Sprintf("%sx%d", l.price.StringFixed(2), qty)
}
