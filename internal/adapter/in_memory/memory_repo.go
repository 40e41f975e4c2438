package in_memory

import (
	"context"
	"sync"

	"github.com/vmartynenko/clob-engine/internal/domain"
	"github.com/vmartynenko/clob-engine/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is the default audit sink when no database is configured: it
// keeps every saved order and trade in process memory, useful for tests
// and single-process deployments.
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[uint64]*domain.Order
	trades map[string][]*domain.Trade
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders: make(map[uint64]*domain.Order),
		trades: make(map[string][]*domain.Trade),
	}
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *MemoryRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[t.ID] = append(r.trades[t.ID], t)
	return nil
}

func (r *MemoryRepo) Close(ctx context.Context) {}
