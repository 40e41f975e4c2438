package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type SubmitOrderRequest struct {
	OrderID  string          `json:"order_id,omitempty"` // idempotency key
	ClientID string          `json:"client_id" binding:"required"`
	Side     Side            `json:"side" binding:"required"`
	Type     OrderType       `json:"type" binding:"required"`
	Price    decimal.Decimal `json:"price,omitempty"` // required for LIMIT
	Quantity int64           `json:"quantity" binding:"required"`
}

type SubmitOrderResponse struct {
	OrderID   uint64  `json:"order_id"`
	Trades    []Trade `json:"trades"`
	Remaining int64   `json:"remaining"`
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
}

type GetOrderResponse struct {
	Order Order `json:"order"`
}

type GetTradesResponse struct {
	Trades []Trade `json:"trades"`
}

type GetOrderbookResponse struct {
	Symbol string       `json:"symbol"`
	Bids   []PriceLevel `json:"bids"`
	Asks   []PriceLevel `json:"asks"`
}

type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type StatsResponse struct {
	OrdersProcessed uint64 `json:"orders_processed"`
	TradesExecuted  uint64 `json:"trades_executed"`
	QuantityTraded  uint64 `json:"quantity_traded"`
}

type Order struct {
	ID             uint64          `json:"id"`
	ClientID       string          `json:"client_id"`
	Symbol         string          `json:"symbol"`
	Side           Side            `json:"side"`
	Type           OrderType       `json:"type"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int64           `json:"quantity"`
	FilledQuantity int64           `json:"filled_quantity"`
	Status         string          `json:"status"`
	Timestamp      time.Time       `json:"timestamp"`
}

type Trade struct {
	ID          string          `json:"id"`
	BuyOrderID  uint64          `json:"buy_order_id"`
	SellOrderID uint64          `json:"sell_order_id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Timestamp   time.Time       `json:"timestamp"`
}
