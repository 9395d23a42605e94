package sales

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/telemetry"
)

// Cancel anula una venta completada y devuelve su stock. La devolución pasa por el StockMutator
// con tipo sale_cancel y referencia a la venta, de modo que el kardex sigue cuadrando.
// Una segunda anulación falla con ErrAlreadyCancelled sin tocar stock.
func (uc *SaleUseCase) Cancel(ctx context.Context, saleID, actorID int64) (_ *dto.SaleResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, component, "CancelSale",
		attribute.Int64("sale_id", saleID), attribute.Int64("actor_id", actorID))
	defer telemetry.EndSpan(span, &err)

	var sale *entity.Sale
	err = uc.tx.Run(ctx, func(repos repository.Set) error {
		var err error
		sale, err = repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		switch sale.Status {
		case entity.SaleStatusCancelled:
			return domain.ErrAlreadyCancelled
		case entity.SaleStatusCompleted:
		default:
			return domain.ErrInvalidTransition
		}

		ids := make([]int64, 0, len(sale.Items))
		for _, it := range sale.Items {
			ids = append(ids, it.ProductID)
		}
		locked, err := inventory.LockExistingProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}

		items := make([]entity.SaleItem, len(sale.Items))
		copy(items, sale.Items)
		sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		ref := entity.SaleRef{SaleID: sale.ID}
		txID := uuid.NewString()
		for _, it := range items {
			p, ok := locked[it.ProductID]
			if !ok {
				uc.log.Warn().
					Int64("sale_id", sale.ID).
					Int64("product_id", it.ProductID).
					Msg("producto de la venta ya no existe; se omite la devolución de stock")
				continue
			}
			if _, err := uc.mutator.Apply(ctx, repos, inventory.Mutation{
				Product:       p,
				Delta:         it.Quantity,
				Type:          entity.MovementTypeSaleCancel,
				Reference:     ref,
				ActorID:       actorID,
				TransactionID: txID,
			}); err != nil {
				return err
			}
		}

		now := uc.now()
		sale.Status = entity.SaleStatusCancelled
		sale.Notes = appendCancellationNote(sale.Notes, actorID, now.Format("2006-01-02 15:04:05"))
		sale.UpdatedAt = now
		return repos.Sales.UpdateStatus(ctx, sale)
	})
	if err != nil {
		uc.log.Debug().Err(err).Int64("sale_id", saleID).Int64("actor_id", actorID).Msg("anulación rechazada")
		return nil, err
	}

	uc.log.Info().
		Int64("sale_id", sale.ID).
		Str("sale_number", sale.SaleNumber).
		Int64("actor_id", actorID).
		Msg("venta anulada")
	return dto.NewSaleResponse(sale), nil
}

func appendCancellationNote(notes string, actorID int64, at string) string {
	note := fmt.Sprintf("[Cancelada por usuario ID: %d el %s]", actorID, at)
	if notes == "" {
		return note
	}
	return notes + "\n" + note
}
