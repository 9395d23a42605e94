package sales

import (
	"context"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/telemetry"
)

// Create registra una venta en una sola transacción, en dos fases:
//  1. bloquea los productos en orden ascendente de ID y valida existencia y stock contra la
//     demanda agregada por producto; ningún stock cambia si alguna línea falla.
//  2. calcula totales y pago, numera la venta (TRX-YYYYMMDD-NNNN), crea la cabecera y por cada
//     línea descuenta stock con el StockMutator y guarda la foto de la línea.
//
// Cualquier error deshace la cabecera, las líneas y los movimientos.
func (uc *SaleUseCase) Create(ctx context.Context, actorID int64, in dto.CreateSaleRequest) (_ *dto.SaleResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, component, "CreateSale",
		attribute.Int64("actor_id", actorID),
		attribute.Int("items", len(in.Items)),
		attribute.String("payment_method", in.PaymentMethod))
	defer telemetry.EndSpan(span, &err)

	method := entity.PaymentMethod(in.PaymentMethod)
	if len(in.Items) == 0 || !method.Valid() ||
		in.DiscountAmount.IsNegative() || in.TaxAmount.IsNegative() ||
		(in.CashGiven != nil && in.CashGiven.IsNegative()) ||
		utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return nil, domain.ErrInvalidInput
	}
	demand := make(map[int64]int, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.Quantity > entity.MaxLineQuantity {
			return nil, domain.ErrInvalidInput
		}
		demand[it.ProductID] += it.Quantity
	}
	ids := make([]int64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	lines := slices.Clone(in.Items)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var sale *entity.Sale
	err = uc.tx.Run(ctx, func(repos repository.Set) error {
		// Fase 1: bloquear y validar
		locked, err := inventory.LockProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if p := locked[id]; p.StockQty < demand[id] {
				return &domain.InsufficientStockError{ProductID: id, Requested: demand[id], Available: p.StockQty}
			}
		}

		// Fase 2: totales, pago y escritura
		items := make([]entity.SaleItem, 0, len(lines))
		subtotal := decimal.Zero
		for _, l := range lines {
			p := locked[l.ProductID]
			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, entity.SaleItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				ProductSKU:  p.SKU,
				Quantity:    l.Quantity,
				Price:       p.Price,
				CostPrice:   p.CostPrice,
				Subtotal:    lineTotal,
			})
		}
		total := subtotal.Add(in.TaxAmount).Sub(in.DiscountAmount)
		if total.IsNegative() {
			return domain.ErrInvalidInput
		}

		now := uc.now()
		sale = &entity.Sale{
			Status:         entity.SaleStatusCompleted,
			PaymentMethod:  method,
			Subtotal:       subtotal,
			TaxAmount:      in.TaxAmount,
			DiscountAmount: in.DiscountAmount,
			TotalAmount:    total,
			Notes:          in.Notes,
			CreatedBy:      actorID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := applyPayment(sale, in.CashGiven); err != nil {
			return err
		}

		// la numeración usa el día UTC
		day := now.UTC()
		seq, err := repos.Counters.Next(ctx, entity.SaleNumberPrefix, day)
		if err != nil {
			return err
		}
		sale.SaleNumber = entity.FormatDocumentNumber(entity.SaleNumberPrefix, day, seq)
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		ref := entity.SaleRef{SaleID: sale.ID}
		txID := uuid.NewString()
		for i := range items {
			if _, err := uc.mutator.Apply(ctx, repos, inventory.Mutation{
				Product:       locked[items[i].ProductID],
				Delta:         -items[i].Quantity,
				Type:          entity.MovementTypeSale,
				Reference:     ref,
				ActorID:       actorID,
				TransactionID: txID,
			}); err != nil {
				return err
			}
			items[i].SaleID = sale.ID
			items[i].CreatedAt = now
			if err := repos.Sales.CreateItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		sale.Items = items
		return nil
	})
	if err != nil {
		uc.log.Debug().Err(err).Int64("actor_id", actorID).Msg("venta rechazada")
		return nil, err
	}

	uc.log.Info().
		Int64("sale_id", sale.ID).
		Str("sale_number", sale.SaleNumber).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Int("items", len(sale.Items)).
		Int64("actor_id", actorID).
		Msg("venta registrada")
	return dto.NewSaleResponse(sale), nil
}

// applyPayment efectivo con monto entregado: exige cubrir el total y calcula el vuelto.
// Efectivo sin monto queda unpaid; los demás medios se marcan paid sin confirmación externa.
func applyPayment(sale *entity.Sale, cashGiven *decimal.Decimal) error {
	if sale.PaymentMethod != entity.PaymentMethodCash {
		sale.PaymentStatus = entity.PaymentStatusPaid
		return nil
	}
	if cashGiven == nil {
		sale.PaymentStatus = entity.PaymentStatusUnpaid
		return nil
	}
	if cashGiven.LessThan(sale.TotalAmount) {
		return &domain.InsufficientPaymentError{CashGiven: *cashGiven, Total: sale.TotalAmount}
	}
	given := *cashGiven
	change := given.Sub(sale.TotalAmount)
	sale.CashGiven = &given
	sale.ChangeReturn = &change
	sale.PaymentStatus = entity.PaymentStatusPaid
	return nil
}
