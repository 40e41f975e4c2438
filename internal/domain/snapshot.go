package domain

import "github.com/shopspring/decimal"

// PriceLevelView is a read-only depth entry: aggregate remaining quantity
// resting at one price.
type PriceLevelView struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// BookSnapshot is a serializable, point-in-time view of the top of one
// instrument's book, produced for the read-through cache and read-only API
// responses. The matching engine never reads one back in.
type BookSnapshot struct {
	Symbol string           `json:"symbol"`
	Bids   []PriceLevelView `json:"bids"`
	Asks   []PriceLevelView `json:"asks"`
}
