package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// SaleFilter filtros del historial de ventas.
type SaleFilter struct {
	Status       entity.SaleStatus
	NumberPrefix string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// SaleRepository puerto de persistencia de ventas.
// GetByID y GetForUpdate cargan las líneas y devuelven (nil, nil) si no existe.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error)
	UpdateStatus(ctx context.Context, sale *entity.Sale) error
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, int, error)
}
