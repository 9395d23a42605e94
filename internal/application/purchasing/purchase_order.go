package purchasing

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/telemetry"
)

// Create registra una orden pendiente con número PO-YYYYMMDD-NNNN. No mueve stock.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, actorID int64, in dto.CreatePurchaseOrderRequest) (_ *dto.PurchaseOrderResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, component, "CreatePurchaseOrder",
		attribute.Int64("actor_id", actorID), attribute.Int64("supplier_id", in.SupplierID))
	defer telemetry.EndSpan(span, &err)

	if in.SupplierID <= 0 || len(in.Items) == 0 || utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.Quantity > entity.MaxLineQuantity || it.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	}

	var po *entity.PurchaseOrder
	err = uc.tx.Run(ctx, func(repos repository.Set) error {
		supplier, err := repos.Suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return fmt.Errorf("supplier %d: %w", in.SupplierID, domain.ErrSupplierNotFound)
		}
		for _, it := range in.Items {
			p, err := repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return &domain.ProductNotFoundError{ProductID: it.ProductID}
			}
		}

		now := uc.now()
		day := now.UTC()
		seq, err := repos.Counters.Next(ctx, entity.PurchaseOrderNumberPrefix, day)
		if err != nil {
			return err
		}
		po = &entity.PurchaseOrder{
			SupplierID:           in.SupplierID,
			PurchaseNumber:       entity.FormatDocumentNumber(entity.PurchaseOrderNumberPrefix, day, seq),
			Status:               entity.PurchaseOrderPending,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			Notes:                in.Notes,
			CreatedBy:            actorID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := repos.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}
		for _, it := range in.Items {
			item := entity.PurchaseOrderItem{
				PurchaseOrderID: po.ID,
				ProductID:       it.ProductID,
				Quantity:        it.Quantity,
				UnitCost:        it.UnitCost,
				Subtotal:        it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))),
			}
			if err := repos.PurchaseOrders.CreateItem(ctx, &item); err != nil {
				return err
			}
			po.Items = append(po.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("purchase_order_id", po.ID).
		Str("purchase_number", po.PurchaseNumber).
		Str("total", po.Total().StringFixed(2)).
		Msg("orden de compra creada")
	return dto.NewPurchaseOrderResponse(po), nil
}

// MarkOrdered pending -> ordered; sella ordered_at.
func (uc *PurchaseOrderUseCase) MarkOrdered(ctx context.Context, id, actorID int64) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, id, actorID, "MarkPurchaseOrderOrdered", func(po *entity.PurchaseOrder) error {
		if err := po.CanMarkOrdered(); err != nil {
			return err
		}
		now := uc.now()
		po.Status = entity.PurchaseOrderOrdered
		po.OrderedAt = &now
		po.UpdatedAt = now
		return nil
	})
}

// Cancel solo órdenes pendientes; una orden ya enviada o recibida no se cancela.
func (uc *PurchaseOrderUseCase) Cancel(ctx context.Context, id, actorID int64) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, id, actorID, "CancelPurchaseOrder", func(po *entity.PurchaseOrder) error {
		if err := po.CanCancel(); err != nil {
			return err
		}
		po.Status = entity.PurchaseOrderCancelled
		po.UpdatedAt = uc.now()
		return nil
	})
}

// transition cambio de estado sin efecto sobre stock, con la orden bloqueada.
func (uc *PurchaseOrderUseCase) transition(ctx context.Context, id, actorID int64, op string, apply func(*entity.PurchaseOrder) error) (_ *dto.PurchaseOrderResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, component, op,
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
		if err := apply(po); err != nil {
			return err
		}
		return repos.PurchaseOrders.UpdateStatus(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("purchase_order_id", po.ID).
		Str("status", string(po.Status)).
		Int64("actor_id", actorID).
		Msg("orden de compra actualizada")
	return dto.NewPurchaseOrderResponse(po), nil
}
