package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// SaleItemRequest línea solicitada en caja.
type SaleItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=1000000"`
}

// CreateSaleRequest body para POST /api/sales.
// CashGiven solo aplica a efectivo; si se omite la venta queda como unpaid.
type CreateSaleRequest struct {
	Items          []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  string            `json:"payment_method" validate:"required,oneof=cash qris debit credit"`
	CashGiven      *decimal.Decimal  `json:"cash_given,omitempty"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	Notes          string            `json:"notes" validate:"max=500"`
}

// SaleItemResponse foto de la línea al momento de la venta.
type SaleItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse salida de una venta con sus líneas.
type SaleResponse struct {
	ID             int64              `json:"id"`
	SaleNumber     string             `json:"sale_number"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"payment_status"`
	PaymentMethod  string             `json:"payment_method"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	CashGiven      *decimal.Decimal   `json:"cash_given,omitempty"`
	ChangeReturn   *decimal.Decimal   `json:"change_return,omitempty"`
	Notes          string             `json:"notes"`
	CreatedBy      int64              `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Items          []SaleItemResponse `json:"items"`
}

// SaleListResponse historial paginado (sin líneas).
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// NewSaleResponse mapea la venta y sus líneas.
func NewSaleResponse(s *entity.Sale) *SaleResponse {
	if s == nil {
		return nil
	}
	out := &SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		Status:         string(s.Status),
		PaymentStatus:  string(s.PaymentStatus),
		PaymentMethod:  string(s.PaymentMethod),
		Subtotal:       s.Subtotal,
		TaxAmount:      s.TaxAmount,
		DiscountAmount: s.DiscountAmount,
		TotalAmount:    s.TotalAmount,
		CashGiven:      s.CashGiven,
		ChangeReturn:   s.ChangeReturn,
		Notes:          s.Notes,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			Price:       it.Price,
			CostPrice:   it.CostPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return out
}
