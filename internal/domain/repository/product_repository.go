package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// ProductFilter filtros para listar productos.
type ProductFilter struct {
	Search     string // coincide con nombre o SKU
	OnlyActive bool
	CategoryID int64
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe o está dado de baja;
// ningún método de lectura devuelve productos dados de baja.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea la fila en modo exclusivo (SELECT ... FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// Update actualiza datos de catálogo; no toca stock_qty ni cost_price.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock persiste stock_qty y cost_price. Solo lo invoca el StockMutator.
	UpdateStock(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
	// ListLowStock productos activos con stock_qty <= min_stock, menor stock primero.
	ListLowStock(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// SoftDelete marca deleted_at y desactiva el producto. El SKU sigue reservado.
	SoftDelete(ctx context.Context, product *entity.Product) error
	// Delete borra la fila. Falla con domain.ErrInUse si el kardex o algún documento la referencia.
	Delete(ctx context.Context, id int64) error
	// IsReferenced indica si hay movimientos, líneas de venta o líneas de compra del producto.
	IsReferenced(ctx context.Context, id int64) (bool, error)
}
