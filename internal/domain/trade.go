package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution record: which two orders crossed, at
// what price and quantity, and when. ID is a bookkeeping addition (a uuid)
// used by callers to correlate trades across transports.
type Trade struct {
	ID          string
	Symbol      string
	BuyOrderID  uint64
	SellOrderID uint64
	Price       decimal.Decimal
	Quantity    int64
	Timestamp   time.Time
}
