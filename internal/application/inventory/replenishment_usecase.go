package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var idealStockFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición a partir de los productos con stock bajo.
type ReplenishmentUseCase struct {
	products repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(products repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{products: products}
}

// LowStock devuelve los productos activos con stock_qty <= min_stock, con la cantidad sugerida
// de pedido (hasta 1.5 veces el mínimo) y su costo estimado al último costo de compra.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context, limit, offset int) ([]dto.LowStockItemDTO, error) {
	// 1. Productos en o bajo su mínimo
	products, err := uc.products.ListLowStock(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	if len(products) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	// 2. Construir sugerencias
	out := make([]dto.LowStockItemDTO, 0, len(products))
	for _, p := range products {
		ideal := int(decimal.NewFromInt(int64(p.MinStock)).Mul(idealStockFactor).Ceil().IntPart())
		suggested := ideal - p.StockQty
		if suggested < 0 {
			suggested = 0
		}
		out = append(out, dto.LowStockItemDTO{
			ProductID:          p.ID,
			SKU:                p.SKU,
			ProductName:        p.Name,
			CurrentStock:       p.StockQty,
			MinStock:           p.MinStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           p.CostPrice,
			EstimatedOrderCost: p.CostPrice.Mul(decimal.NewFromInt(int64(suggested))),
		})
	}

	// 3. Ordenar: primero sin stock, luego mayor déficit bajo el mínimo, luego SKU.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.CurrentStock == 0) != (b.CurrentStock == 0) {
			return a.CurrentStock == 0
		}
		defA, defB := a.MinStock-a.CurrentStock, b.MinStock-b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.SKU < b.SKU
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range out {
		out[i].Priority = offset + i + 1
	}
	return out, nil
}
