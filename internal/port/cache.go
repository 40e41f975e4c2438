package port

import (
	"context"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

// Cache is a read-through store for top-of-book snapshots, populated after
// each match and consulted by read-only API handlers ahead of the book's
// own lock. It is a latency optimization, never the system of record.
type Cache interface {
	SetOrderbook(ctx context.Context, symbol string, ob domain.BookSnapshot) error
	GetOrderbook(ctx context.Context, symbol string) (*domain.BookSnapshot, error)
}
