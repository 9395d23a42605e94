package inventory

import (
	"context"
	"slices"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

// LockProducts bloquea cada producto una sola vez, en orden ascendente de ID, dentro de la
// transacción de products. El orden fijo evita esperas circulares entre dos operaciones que
// tocan los mismos productos en distinto orden. Un producto inexistente aborta con ProductNotFoundError.
func LockProducts(ctx context.Context, products repository.ProductRepository, ids []int64) (map[int64]*entity.Product, error) {
	return lockSorted(ctx, products, ids, true)
}

// LockExistingProducts igual que LockProducts pero omite los productos que ya no existen.
func LockExistingProducts(ctx context.Context, products repository.ProductRepository, ids []int64) (map[int64]*entity.Product, error) {
	return lockSorted(ctx, products, ids, false)
}

func lockSorted(ctx context.Context, products repository.ProductRepository, ids []int64, strict bool) (map[int64]*entity.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	locked := make(map[int64]*entity.Product, len(sorted))
	for _, id := range sorted {
		p, err := products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			if strict {
				return nil, &domain.ProductNotFoundError{ProductID: id}
			}
			continue
		}
		locked[id] = p
	}
	return locked, nil
}
