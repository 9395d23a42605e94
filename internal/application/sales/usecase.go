package sales

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
	component   = "application/sales"
	maxNotesLen = 500
)

// SaleUseCase ventas de caja: creación, anulación y consultas.
type SaleUseCase struct {
	tx      inventory.TxRunner
	repos   repository.Set
	mutator *inventory.StockMutator
	log     *logger.Logger
	now     func() time.Time
}

// NewSaleUseCase construye el caso de uso. repos se usa solo para lecturas fuera de transacción.
func NewSaleUseCase(tx inventory.TxRunner, repos repository.Set, mutator *inventory.StockMutator, log *logger.Logger) *SaleUseCase {
	return &SaleUseCase{tx: tx, repos: repos, mutator: mutator, log: log.Named("sales"), now: time.Now}
}

// GetByID devuelve la venta con sus líneas; domain.ErrNotFound si no existe.
func (uc *SaleUseCase) GetByID(ctx context.Context, id int64) (*dto.SaleResponse, error) {
	sale, err := uc.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewSaleResponse(sale), nil
}

// List historial de ventas filtrado, más reciente primero.
func (uc *SaleUseCase) List(ctx context.Context, filter repository.SaleFilter) (*dto.SaleListResponse, error) {
	list, total, err := uc.repos.Sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *dto.NewSaleResponse(s))
	}
	return &dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}
