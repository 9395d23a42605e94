package purchasing

import (
	"context"
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

// Receive recibe la orden completa en una transacción: estado received, y por cada línea
// cost_price = unit_cost (último costo) y entrada de stock con el StockMutator.
// No hay recepción parcial.
func (uc *PurchaseOrderUseCase) Receive(ctx context.Context, id, actorID int64) (_ *dto.PurchaseOrderResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, component, "ReceivePurchaseOrder",
		attribute.Int64("purchase_order_id", id), attribute.Int64("actor_id", actorID))
	defer telemetry.EndSpan(span, &err)

	var po *entity.PurchaseOrder
	err = uc.tx.Run(ctx, func(repos repository.Set) error {
		var err error
		po, err = repos.PurchaseOrders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if err := po.CanReceive(); err != nil {
			return err
		}

		now := uc.now()
		receivedBy := actorID
		po.Status = entity.PurchaseOrderReceived
		po.ReceivedAt = &now
		po.ReceivedBy = &receivedBy
		po.UpdatedAt = now
		if err := repos.PurchaseOrders.UpdateStatus(ctx, po); err != nil {
			return err
		}

		ids := make([]int64, 0, len(po.Items))
		for _, it := range po.Items {
			ids = append(ids, it.ProductID)
		}
		locked, err := inventory.LockProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}

		items := make([]entity.PurchaseOrderItem, len(po.Items))
		copy(items, po.Items)
		sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		ref := entity.PurchaseOrderRef{PurchaseOrderID: po.ID}
		txID := uuid.NewString()
		for _, it := range items {
			p := locked[it.ProductID]
			p.CostPrice = it.UnitCost
			if _, err := uc.mutator.Apply(ctx, repos, inventory.Mutation{
				Product:       p,
				Delta:         it.Quantity,
				Type:          entity.MovementTypePurchase,
				Reference:     ref,
				ActorID:       actorID,
				TransactionID: txID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.log.Debug().Err(err).Int64("purchase_order_id", id).Msg("recepción rechazada")
		return nil, err
	}

	uc.log.Info().
		Int64("purchase_order_id", po.ID).
		Str("purchase_number", po.PurchaseNumber).
		Int("items", len(po.Items)).
		Int64("actor_id", actorID).
		Msg("orden de compra recibida")
	return dto.NewPurchaseOrderResponse(po), nil
}
