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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	session
}

func productKey(id int64) string { return fmt.Sprintf("product:%d", id) }

// Create asigna ID. El SKU duplicado se detecta al escribir (autocommit) o al confirmar la tx.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	product.ID = r.s.nextID("products")
	if r.tx != nil {
		r.s.mu.RLock()
		taken := r.s.skuTaken(product.SKU, product.ID, r.tx)
		r.s.mu.RUnlock()
		if taken {
			return domain.ErrDuplicate
		}
		r.tx.products[product.ID] = *product
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.skuTaken(product.SKU, product.ID, nil) {
		return domain.ErrDuplicate
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *ProductRepo) get(id int64) (*entity.Product, bool) {
	p, ok := r.raw(id)
	if !ok || p.DeletedAt != nil {
		return nil, false
	}
	return p, true
}

// raw lee la fila aunque esté dada de baja.
func (r *ProductRepo) raw(id int64) (*entity.Product, bool) {
	if r.tx != nil {
		if _, gone := r.tx.dropped[id]; gone {
			return nil, false
		}
		if p, ok := r.tx.products[id]; ok {
			return &p, true
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (r *ProductRepo) put(p *entity.Product) {
	if r.tx != nil {
		r.tx.products[p.ID] = *p
		return
	}
	r.s.mu.Lock()
	r.s.products[p.ID] = *p
	r.s.mu.Unlock()
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return p, nil
}

// GetForUpdate toma el bloqueo de la fila hasta el fin de la transacción y luego lee.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	if err := r.lock(ctx, productKey(id)); err != nil {
		return nil, err
	}
	p, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return p, nil
}

// Update solo datos de catálogo; stock_qty y cost_price se conservan.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := r.get(product.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = product.Name
	cur.Description = product.Description
	cur.CategoryID = product.CategoryID
	cur.Price = product.Price
	cur.MinStock = product.MinStock
	cur.IsActive = product.IsActive
	cur.UpdatedAt = product.UpdatedAt
	r.put(cur)
	return nil
}

func (r *ProductRepo) UpdateStock(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := r.get(product.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.StockQty = product.StockQty
	cur.CostPrice = product.CostPrice
	cur.UpdatedAt = product.UpdatedAt
	r.put(cur)
	return nil
}

// snapshot productos visibles para esta sesión (sin bajas), ordenados por ID.
func (r *ProductRepo) snapshot() []entity.Product {
	r.s.mu.RLock()
	out := make([]entity.Product, 0, len(r.s.products))
	for id, p := range r.s.products {
		if r.tx != nil {
			if _, gone := r.tx.dropped[id]; gone {
				continue
			}
			if staged, ok := r.tx.products[id]; ok {
				p = staged
			}
		}
		out = append(out, p)
	}
	if r.tx != nil {
		for id, p := range r.tx.products {
			if _, ok := r.s.products[id]; !ok {
				out = append(out, p)
			}
		}
	}
	r.s.mu.RUnlock()
	out = slices.DeleteFunc(out, func(p entity.Product) bool { return p.DeletedAt != nil })
	slices.SortFunc(out, func(a, b entity.Product) int { return cmpInt64(a.ID, b.ID) })
	return out
}

func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []*entity.Product
	for _, p := range r.snapshot() {
		if filter.OnlyActive && !p.IsActive {
			continue
		}
		if filter.CategoryID != 0 && (p.CategoryID == nil || *p.CategoryID != filter.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		matched = append(matched, &p)
	}
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *ProductRepo) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var low []*entity.Product
	for _, p := range r.snapshot() {
		if p.IsActive && p.IsLowStock() {
			low = append(low, &p)
		}
	}
	slices.SortStableFunc(low, func(a, b *entity.Product) int {
		if a.StockQty != b.StockQty {
			return a.StockQty - b.StockQty
		}
		return cmpInt64(a.ID, b.ID)
	})
	return page(low, limit, offset), nil
}

func (r *ProductRepo) SoftDelete(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := r.get(product.ID)
	if !ok {
		return domain.ErrNotFound
	}
	cur.IsActive = false
	cur.DeletedAt = product.DeletedAt
	cur.UpdatedAt = product.UpdatedAt
	r.put(cur)
	return nil
}

// Delete bloquea la fila y la borra si nada la referencia, igual que la FK en PostgreSQL.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if err := r.lock(ctx, productKey(id)); err != nil {
		return err
	}
	if _, ok := r.raw(id); !ok {
		return domain.ErrNotFound
	}
	used, err := r.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("delete product %d: %w", id, domain.ErrInUse)
	}
	if r.tx != nil {
		delete(r.tx.products, id)
		r.tx.dropped[id] = struct{}{}
		return nil
	}
	r.s.mu.Lock()
	delete(r.s.products, id)
	r.s.mu.Unlock()
	return nil
}

func (r *ProductRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var movements []entity.StockMovement
	sales := []map[int64]entity.Sale{r.s.sales}
	pos := []map[int64]entity.PurchaseOrder{r.s.pos}
	movements = append(movements, r.s.movements...)
	if r.tx != nil {
		movements = append(movements, r.tx.movements...)
		sales = append(sales, r.tx.sales)
		pos = append(pos, r.tx.pos)
	}
	for _, m := range movements {
		if m.ProductID == id {
			return true, nil
		}
	}
	for _, set := range sales {
		for _, sale := range set {
			for _, it := range sale.Items {
				if it.ProductID == id {
					return true, nil
				}
			}
		}
	}
	for _, set := range pos {
		for _, po := range set {
			for _, it := range po.Items {
				if it.ProductID == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// page aplica offset/limit; limit <= 0 devuelve todo desde offset.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
