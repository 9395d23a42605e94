package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// StockAdjustmentRepository puerto de persistencia de ajustes de stock.
type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.StockAdjustment) error
	GetByID(ctx context.Context, id int64) (*entity.StockAdjustment, error)
}
