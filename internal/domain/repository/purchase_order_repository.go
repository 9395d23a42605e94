package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// PurchaseOrderFilter filtros de órdenes de compra.
type PurchaseOrderFilter struct {
	Status     entity.PurchaseOrderStatus
	SupplierID int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// PurchaseOrderRepository puerto de persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	CreateItem(ctx context.Context, item *entity.PurchaseOrderItem) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	// UpdateStatus persiste status, ordered_at, received_at y received_by.
	UpdateStatus(ctx context.Context, po *entity.PurchaseOrder) error
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error)
}
