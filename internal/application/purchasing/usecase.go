package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

const (
	component   = "application/purchasing"
	maxNotesLen = 500
)

// PurchaseOrderUseCase ciclo de vida de órdenes de compra: pending -> ordered -> received, o cancelled.
type PurchaseOrderUseCase struct {
	tx      inventory.TxRunner
	repos   repository.Set
	mutator *inventory.StockMutator
	log     *logger.Logger
	now     func() time.Time
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(tx inventory.TxRunner, repos repository.Set, mutator *inventory.StockMutator, log *logger.Logger) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{tx: tx, repos: repos, mutator: mutator, log: log.Named("purchasing"), now: time.Now}
}

// GetByID devuelve la orden con sus líneas; domain.ErrNotFound si no existe.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, id int64) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.repos.PurchaseOrders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewPurchaseOrderResponse(po), nil
}

func (uc *PurchaseOrderUseCase) List(ctx context.Context, filter repository.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	list, total, err := uc.repos.PurchaseOrders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, *dto.NewPurchaseOrderResponse(po))
	}
	return &dto.PurchaseOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}
