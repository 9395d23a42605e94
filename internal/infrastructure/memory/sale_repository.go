package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas en memoria; las líneas viven dentro de la cabecera.
type SaleRepo struct {
	session
}

func (r *SaleRepo) get(id int64) (entity.Sale, bool) {
	if r.tx != nil {
		if s, ok := r.tx.sales[id]; ok {
			return cloneSale(s), true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.sales[id]
	return cloneSale(s), ok
}

func (r *SaleRepo) put(s entity.Sale) {
	if r.tx != nil {
		r.tx.sales[s.ID] = s
		return
	}
	r.s.mu.Lock()
	r.s.sales[s.ID] = s
	r.s.mu.Unlock()
}

func cloneSale(s entity.Sale) entity.Sale {
	s.Items = slices.Clone(s.Items)
	return s
}

func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sale.ID = r.s.nextID("sales")
	stored := cloneSale(*sale)
	stored.Items = nil
	r.put(stored)
	return nil
}

func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := r.get(item.SaleID)
	if !ok {
		return fmt.Errorf("insert sale item: %w", domain.ErrNotFound)
	}
	item.ID = r.s.nextID("sale_items")
	s.Items = append(s.Items, *item)
	r.put(s)
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	if err := r.lock(ctx, fmt.Sprintf("sale:%d", id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus persiste status, payment_status y notes.
func (r *SaleRepo) UpdateStatus(ctx context.Context, sale *entity.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := r.get(sale.ID)
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = sale.Status
	s.PaymentStatus = sale.PaymentStatus
	s.Notes = sale.Notes
	s.UpdatedAt = sale.UpdatedAt
	r.put(s)
	return nil
}

func (r *SaleRepo) List(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	all := make(map[int64]entity.Sale, len(r.s.sales))
	for id, s := range r.s.sales {
		all[id] = s
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, s := range r.tx.sales {
			all[id] = s
		}
	}

	var list []*entity.Sale
	for _, s := range all {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.NumberPrefix != "" && !strings.HasPrefix(s.SaleNumber, filter.NumberPrefix) {
			continue
		}
		if filter.From != nil && s.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !s.CreatedAt.Before(*filter.To) {
			continue
		}
		s.Items = nil
		list = append(list, &s)
	}
	// más reciente primero
	slices.SortFunc(list, func(a, b *entity.Sale) int { return cmpInt64(b.ID, a.ID) })
	return page(list, filter.Limit, filter.Offset), len(list), nil
}
