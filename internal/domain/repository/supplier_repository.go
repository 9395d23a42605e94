package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// SupplierFilter filtros para listar proveedores.
type SupplierFilter struct {
	Search string // coincide con nombre o persona de contacto
	Active *bool
	Limit  int
	Offset int
}

// SupplierRepository puerto de persistencia de proveedores. GetByID devuelve (nil, nil) si no existe.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	Delete(ctx context.Context, id int64) error
	// List ordena por nombre.
	List(ctx context.Context, filter SupplierFilter) ([]*entity.Supplier, int, error)
	HasPurchaseOrders(ctx context.Context, id int64) (bool, error)
}
