package port

import (
	"context"

	"github.com/vmartynenko/clob-engine/internal/domain"
)

// Repository is a write-only audit sink: every accepted order and every
// executed trade is recorded here for later reconciliation, but nothing in
// the matching path ever reads through it. Order state transitions,
// cancellation, and modification are not persisted operations.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveTrade(ctx context.Context, t *domain.Trade) error
	Close(ctx context.Context)
}
