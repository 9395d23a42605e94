package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

type CategoryRepo struct {
	session
}

func (r *CategoryRepo) rows() map[int64]entity.Category {
	var pending map[int64]*entity.Category
	if r.tx != nil {
		pending = r.tx.categories
	}
	return visibleRows(r.s, r.s.categories, pending)
}

func (r *CategoryRepo) put(c entity.Category) {
	if r.tx != nil {
		r.tx.categories[c.ID] = &c
		return
	}
	r.s.mu.Lock()
	r.s.categories[c.ID] = c
	r.s.mu.Unlock()
}

func (r *CategoryRepo) Create(ctx context.Context, category *entity.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	category.ID = r.s.nextID("categories")
	r.put(*category)
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := r.rows()[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CategoryRepo) Update(ctx context.Context, category *entity.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.rows()[category.ID]; !ok {
		return domain.ErrNotFound
	}
	r.put(*category)
	return nil
}

// Delete falla con domain.ErrInUse si algún producto, incluso dado de baja, pertenece a la categoría.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.rows()[id]; !ok {
		return domain.ErrNotFound
	}
	if r.referenced(id, true) > 0 {
		return domain.ErrInUse
	}
	if r.tx != nil {
		r.tx.categories[id] = nil
		return nil
	}
	r.s.mu.Lock()
	delete(r.s.categories, id)
	r.s.mu.Unlock()
	return nil
}

func (r *CategoryRepo) List(ctx context.Context, active *bool) ([]*entity.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := []*entity.Category{}
	for _, c := range r.rows() {
		if active != nil && c.IsActive != *active {
			continue
		}
		list = append(list, &c)
	}
	slices.SortFunc(list, func(a, b *entity.Category) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})
	return list, nil
}

func (r *CategoryRepo) CountProducts(ctx context.Context, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.referenced(id, false), nil
}

// referenced cuenta productos de la categoría; withDeleted incluye las bajas lógicas.
func (r *CategoryRepo) referenced(id int64, withDeleted bool) int {
	products := make(map[int64]entity.Product)
	r.s.mu.RLock()
	for pid, p := range r.s.products {
		products[pid] = p
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for pid, p := range r.tx.products {
			products[pid] = p
		}
		for pid := range r.tx.dropped {
			delete(products, pid)
		}
	}
	n := 0
	for _, p := range products {
		if p.CategoryID == nil || *p.CategoryID != id {
			continue
		}
		if p.DeletedAt != nil && !withDeleted {
			continue
		}
		n++
	}
	return n
}
