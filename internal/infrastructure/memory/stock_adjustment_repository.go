package memory

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

type StockAdjustmentRepo struct {
	session
}

// Create guarda solo la cabecera; los movimientos se leen del kardex por referencia.
func (r *StockAdjustmentRepo) Create(ctx context.Context, adj *entity.StockAdjustment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	adj.ID = r.s.nextID("stock_adjustments")
	stored := *adj
	stored.Movements = nil
	if r.tx != nil {
		r.tx.adjustments[adj.ID] = stored
		return nil
	}
	r.s.mu.Lock()
	r.s.adjustments[adj.ID] = stored
	r.s.mu.Unlock()
	return nil
}

func (r *StockAdjustmentRepo) GetByID(ctx context.Context, id int64) (*entity.StockAdjustment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if adj, ok := r.tx.adjustments[id]; ok {
			return &adj, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	adj, ok := r.s.adjustments[id]
	if !ok {
		return nil, nil
	}
	return &adj, nil
}
