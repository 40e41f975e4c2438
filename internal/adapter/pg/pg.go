package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmartynenko/clob-engine/internal/domain"
	"github.com/vmartynenko/clob-engine/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

// PgRepo is an append-only audit sink. It never reads state back for the
// matching path; rows exist only for post-hoc reconciliation.
type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(id, client_id, symbol, side, type, price, quantity, filled_quantity, status, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  quantity = EXCLUDED.quantity,
  filled_quantity = EXCLUDED.filled_quantity,
  status = EXCLUDED.status
`, o.ID, o.ClientID, o.Symbol, string(o.Side), string(o.Type),
		o.Price, o.Quantity, o.FilledQuantity, string(o.Status), o.Timestamp)
	return err
}

func (p *PgRepo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO trades(id, symbol, buy_order_id, sell_order_id, price, quantity, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Symbol, t.BuyOrderID, t.SellOrderID, t.Price, t.Quantity, t.Timestamp)
	return err
}
