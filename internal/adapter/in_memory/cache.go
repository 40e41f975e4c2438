package in_memory

import (
	"context"
	"sync"

	"github.com/vmartynenko/clob-engine/internal/domain"
	"github.com/vmartynenko/clob-engine/internal/port"
)

type Cache struct {
	mu    sync.Mutex
	store map[string]domain.BookSnapshot
}

var _ port.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]domain.BookSnapshot)}
}

func (c *Cache) SetOrderbook(ctx context.Context, symbol string, ob domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[symbol] = ob
	return nil
}

func (c *Cache) GetOrderbook(ctx context.Context, symbol string) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ob, ok := c.store[symbol]
	if !ok {
		return nil, nil
	}
	return &ob, nil
}
