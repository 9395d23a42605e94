package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// PurchaseOrderItemRequest línea de la orden.
type PurchaseOrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0,lte=1000000"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID           int64                      `json:"supplier_id" validate:"required,gt=0"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date,omitempty"`
	Notes                string                     `json:"notes" validate:"max=500"`
	Items                []PurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type PurchaseOrderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID                   int64                       `json:"id"`
	SupplierID           int64                       `json:"supplier_id"`
	PurchaseNumber       string                      `json:"purchase_number"`
	Status               string                      `json:"status"`
	TotalAmount          decimal.Decimal             `json:"total_amount"`
	OrderedAt            *time.Time                  `json:"ordered_at,omitempty"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date,omitempty"`
	ReceivedAt           *time.Time                  `json:"received_at,omitempty"`
	ReceivedBy           *int64                      `json:"received_by,omitempty"`
	Notes                string                      `json:"notes"`
	CreatedBy            int64                       `json:"created_by"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
	Items                []PurchaseOrderItemResponse `json:"items"`
}

type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// NewPurchaseOrderResponse mapea la orden y sus líneas.
func NewPurchaseOrderResponse(po *entity.PurchaseOrder) *PurchaseOrderResponse {
	if po == nil {
		return nil
	}
	out := &PurchaseOrderResponse{
		ID:                   po.ID,
		SupplierID:           po.SupplierID,
		PurchaseNumber:       po.PurchaseNumber,
		Status:               string(po.Status),
		TotalAmount:          po.Total(),
		OrderedAt:            po.OrderedAt,
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		ReceivedAt:           po.ReceivedAt,
		ReceivedBy:           po.ReceivedBy,
		Notes:                po.Notes,
		CreatedBy:            po.CreatedBy,
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
		Items:                make([]PurchaseOrderItemResponse, 0, len(po.Items)),
	}
	for _, it := range po.Items {
		out.Items = append(out.Items, PurchaseOrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}
