package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// MovementFilter filtros del kardex.
type MovementFilter struct {
	ProductID int64
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
	Ascending bool // orden de creación; por defecto el más reciente primero
	Limit     int
	Offset    int
}

// StockMovementRepository puerto del kardex. Solo inserciones: los movimientos son inmutables.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, int, error)
	// ListByProduct todos los movimientos del producto en orden de creación.
	ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, ref entity.Reference) ([]*entity.StockMovement, error)
}
