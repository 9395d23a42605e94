package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

type PurchaseOrderRepo struct {
	session
}

func (r *PurchaseOrderRepo) get(id int64) (entity.PurchaseOrder, bool) {
	if r.tx != nil {
		if po, ok := r.tx.pos[id]; ok {
			po.Items = slices.Clone(po.Items)
			return po, true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	po, ok := r.s.pos[id]
	po.Items = slices.Clone(po.Items)
	return po, ok
}

func (r *PurchaseOrderRepo) put(po entity.PurchaseOrder) {
	if r.tx != nil {
		r.tx.pos[po.ID] = po
		return
	}
	r.s.mu.Lock()
	r.s.pos[po.ID] = po
	r.s.mu.Unlock()
}

func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	po.ID = r.s.nextID("purchase_orders")
	stored := *po
	stored.Items = nil
	r.put(stored)
	return nil
}

func (r *PurchaseOrderRepo) CreateItem(ctx context.Context, item *entity.PurchaseOrderItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	po, ok := r.get(item.PurchaseOrderID)
	if !ok {
		return fmt.Errorf("insert purchase order item: %w", domain.ErrNotFound)
	}
	item.ID = r.s.nextID("purchase_order_items")
	po.Items = append(po.Items, *item)
	r.put(po)
	return nil
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	po, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return &po, nil
}

func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	if err := r.lock(ctx, fmt.Sprintf("purchase_order:%d", id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, po *entity.PurchaseOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := r.get(po.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = po.Status
	cur.OrderedAt = po.OrderedAt
	cur.ReceivedAt = po.ReceivedAt
	cur.ReceivedBy = po.ReceivedBy
	cur.UpdatedAt = po.UpdatedAt
	r.put(cur)
	return nil
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	all := make(map[int64]entity.PurchaseOrder, len(r.s.pos))
	for id, po := range r.s.pos {
		all[id] = po
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, po := range r.tx.pos {
			all[id] = po
		}
	}

	var list []*entity.PurchaseOrder
	for _, po := range all {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.SupplierID != 0 && po.SupplierID != filter.SupplierID {
			continue
		}
		if filter.From != nil && po.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !po.CreatedAt.Before(*filter.To) {
			continue
		}
		po.Items = slices.Clone(po.Items)
		list = append(list, &po)
	}
	slices.SortFunc(list, func(a, b *entity.PurchaseOrder) int { return cmpInt64(b.ID, a.ID) })
	return page(list, filter.Limit, filter.Offset), len(list), nil
}
