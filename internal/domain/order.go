// Package domain holds the wire-independent types shared by the matching
// core and every transport built on top of it.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderType string

type OrderStatus string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"

	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"

	New             OrderStatus = "NEW"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Canceled        OrderStatus = "CANCELED"
	Rejected        OrderStatus = "REJECTED"
)

// Order is a standing intent to trade. ID is assigned by the caller or by
// an injected matching.IDGenerator before the order reaches the book; it
// is stable for the order's lifetime and never reused.
type Order struct {
	ID       uint64
	ClientID string
	Symbol   string
	Side     Side
	Type     OrderType
	Price    decimal.Decimal

	Quantity       int64
	FilledQuantity int64

	Timestamp time.Time
	Status    OrderStatus
}

// Remaining returns the quantity still open for matching.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// Fill applies a fill of qty against the order. It rejects non-positive
// quantities and quantities exceeding the order's remaining size wholly,
// leaving the order untouched on failure.
func (o *Order) Fill(qty int64) error {
	if qty <= 0 {
		return ErrInvalidFill
	}
	if qty > o.Remaining() {
		return ErrInvalidFill
	}
	o.FilledQuantity += qty
	if o.FilledQuantity == o.Quantity {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
	return nil
}

// Cancel marks the order canceled unless it is already fully filled.
func (o *Order) Cancel() {
	if o.Status != Filled {
		o.Status = Canceled
	}
}

func (o *Order) IsResting() bool {
	return o.Remaining() > 0 && o.Status != Filled && o.Status != Canceled && o.Status != Rejected
}
