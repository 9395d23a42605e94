package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	ledger "github.com/jhoicas/pos-inventario-api/internal/domain/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// LedgerUseCase consultas sobre el kardex: historial y conciliación.
type LedgerUseCase struct {
	tx    TxRunner
	repos repository.Set
	log   *logger.Logger
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(tx TxRunner, repos repository.Set, log *logger.Logger) *LedgerUseCase {
	return &LedgerUseCase{tx: tx, repos: repos, log: log.Named("ledger")}
}

// ListMovements historial filtrado y paginado. Por defecto el más reciente primero.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.StockMovementListResponse, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, total, err := uc.repos.Movements.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	items := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.NewStockMovementResponse(m))
	}
	return &dto.StockMovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

// Reconcile reproduce el kardex del producto y lo compara con su stock actual.
// Bloquea el producto durante la lectura para que ninguna mutación concurrente
// se cuele entre la carga del kardex y la del stock.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, productID int64) (*ledger.ReconciliationReport, error) {
	var report ledger.ReconciliationReport
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		p, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		movements, err := repos.Movements.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		report = ledger.Reconcile(productID, movements, p.StockQty)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !report.Consistent {
		uc.log.Warn().
			Int64("product_id", productID).
			Int64("mismatch_at", report.MismatchAt).
			Str("reason", report.Reason).
			Msg("kardex inconsistente con el stock actual")
	}
	return &report, nil
}

