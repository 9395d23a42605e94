package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

type SupplierRepo struct {
	session
}

func (r *SupplierRepo) rows() map[int64]entity.Supplier {
	var pending map[int64]*entity.Supplier
	if r.tx != nil {
		pending = r.tx.suppliers
	}
	return visibleRows(r.s, r.s.suppliers, pending)
}

func (r *SupplierRepo) put(sp entity.Supplier) {
	if r.tx != nil {
		r.tx.suppliers[sp.ID] = &sp
		return
	}
	r.s.mu.Lock()
	r.s.suppliers[sp.ID] = sp
	r.s.mu.Unlock()
}

func (r *SupplierRepo) Create(ctx context.Context, supplier *entity.Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	supplier.ID = r.s.nextID("suppliers")
	r.put(*supplier)
	return nil
}

func (r *SupplierRepo) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sp, ok := r.rows()[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (r *SupplierRepo) Update(ctx context.Context, supplier *entity.Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.rows()[supplier.ID]; !ok {
		return domain.ErrNotFound
	}
	r.put(*supplier)
	return nil
}

// Delete falla con domain.ErrInUse si alguna orden de compra apunta al proveedor.
func (r *SupplierRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows()[id]; !ok {
		return domain.ErrNotFound
	}
	used, err := r.HasPurchaseOrders(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrInUse
	}
	if r.tx != nil {
		r.tx.suppliers[id] = nil
		return nil
	}
	r.s.mu.Lock()
	delete(r.s.suppliers, id)
	r.s.mu.Unlock()
	return nil
}

func (r *SupplierRepo) List(ctx context.Context, filter repository.SupplierFilter) ([]*entity.Supplier, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var list []*entity.Supplier
	for _, sp := range r.rows() {
		if filter.Active != nil && sp.IsActive != *filter.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(sp.Name), search) &&
			!strings.Contains(strings.ToLower(sp.ContactPerson), search) {
			continue
		}
		list = append(list, &sp)
	}
	slices.SortFunc(list, func(a, b *entity.Supplier) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})
	return page(list, filter.Limit, filter.Offset), len(list), nil
}

func (r *SupplierRepo) HasPurchaseOrders(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, po := range r.s.pos {
		if po.SupplierID == id {
			return true, nil
		}
	}
	if r.tx != nil {
		for _, po := range r.tx.pos {
			if po.SupplierID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
