package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// StockAdjustmentItemRequest delta con signo para un producto; 0 no es válido.
type StockAdjustmentItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Delta     int   `json:"delta" validate:"required,ne=0,min=-1000000,max=1000000"`
}

// CreateStockAdjustmentRequest body para POST /api/inventory/adjustments (opname).
type CreateStockAdjustmentRequest struct {
	Reason string                       `json:"reason" validate:"required,oneof=damaged lost correction other"`
	Notes  string                       `json:"notes" validate:"max=500"`
	Items  []StockAdjustmentItemRequest `json:"items" validate:"required,min=1,dive"`
}

// StockMovementResponse entrada del kardex.
type StockMovementResponse struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transaction_id"`
	ProductID     int64     `json:"product_id"`
	Type          string    `json:"type"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   int64     `json:"reference_id,omitempty"`
	Quantity      int       `json:"quantity"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	UserID        int64     `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// StockAdjustmentResponse cabecera del ajuste con los movimientos que generó.
type StockAdjustmentResponse struct {
	ID        int64                   `json:"id"`
	Reason    string                  `json:"reason"`
	Notes     string                  `json:"notes"`
	CreatedBy int64                   `json:"created_by"`
	CreatedAt time.Time               `json:"created_at"`
	Movements []StockMovementResponse `json:"movements"`
}

// LowStockItemDTO producto en o bajo su stock mínimo, con la reposición sugerida.
type LowStockItemDTO struct {
	ProductID          int64           `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       int             `json:"current_stock"`
	MinStock           int             `json:"min_stock"`
	IdealStock         int             `json:"ideal_stock"`          // ceil(MinStock * 1.5)
	SuggestedOrderQty  int             `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // último costo de compra
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// NewStockMovementResponse mapea un movimiento del kardex.
func NewStockMovementResponse(m *entity.StockMovement) StockMovementResponse {
	out := StockMovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		StockBefore:   m.StockBefore,
		StockAfter:    m.StockAfter,
		UserID:        m.UserID,
		CreatedAt:     m.CreatedAt,
	}
	if m.Reference != nil {
		out.ReferenceType = string(m.Reference.Kind())
		out.ReferenceID = m.Reference.RefID()
	}
	return out
}

// NewStockAdjustmentResponse mapea el ajuste y sus movimientos.
func NewStockAdjustmentResponse(a *entity.StockAdjustment) *StockAdjustmentResponse {
	if a == nil {
		return nil
	}
	out := &StockAdjustmentResponse{
		ID:        a.ID,
		Reason:    string(a.Reason),
		Notes:     a.Notes,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		Movements: make([]StockMovementResponse, 0, len(a.Movements)),
	}
	for i := range a.Movements {
		out.Movements = append(out.Movements, NewStockMovementResponse(&a.Movements[i]))
	}
	return out
}
