package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo kardex en memoria: solo inserciones.
type StockMovementRepo struct {
	session
}

func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	movement.ID = r.s.nextID("stock_movements")
	if movement.Reference == nil {
		movement.Reference = entity.NoRef{}
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, *movement)
		return nil
	}
	r.s.mu.Lock()
	r.s.movements = append(r.s.movements, *movement)
	r.s.mu.Unlock()
	return nil
}

// visible movimientos confirmados más los pendientes de la tx, en orden de ID.
func (r *StockMovementRepo) visible(keep func(*entity.StockMovement) bool) []*entity.StockMovement {
	var out []*entity.StockMovement
	r.s.mu.RLock()
	for _, m := range r.s.movements {
		if keep(&m) {
			out = append(out, &m)
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, m := range r.tx.movements {
			if keep(&m) {
				out = append(out, &m)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b *entity.StockMovement) int { return cmpInt64(a.ID, b.ID) })
	return out
}

func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	list := r.visible(func(m *entity.StockMovement) bool {
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			return false
		}
		if filter.Type != "" && m.Type != filter.Type {
			return false
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !m.CreatedAt.Before(*filter.To) {
			return false
		}
		return true
	})
	if !filter.Ascending {
		slices.Reverse(list)
	}
	return page(list, filter.Limit, filter.Offset), len(list), nil
}

func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.visible(func(m *entity.StockMovement) bool { return m.ProductID == productID }), nil
}

func (r *StockMovementRepo) ListByReference(ctx context.Context, ref entity.Reference) ([]*entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.visible(func(m *entity.StockMovement) bool {
		return m.Reference != nil && m.Reference.Kind() == ref.Kind() && m.Reference.RefID() == ref.RefID()
	}), nil
}
