package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto.
// InitialStock, si es > 0, se registra como ajuste en el kardex dentro de la misma transacción.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description" validate:"max=1000"`
	CategoryID   *int64          `json:"category_id" validate:"omitempty,gt=0"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	MinStock     int             `json:"min_stock" validate:"min=0,max=2147483647"`
	InitialStock int             `json:"initial_stock" validate:"min=0,max=1000000"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni costo).
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *int             `json:"min_stock" validate:"omitempty,min=0,max=2147483647"`
	IsActive    *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *int64          `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	StockQty    int             `json:"stock_qty"`
	MinStock    int             `json:"min_stock"`
	IsActive    bool            `json:"is_active"`
	LowStock    bool            `json:"low_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewProductResponse mapea la entidad a la respuesta.
func NewProductResponse(p *entity.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		StockQty:    p.StockQty,
		MinStock:    p.MinStock,
		IsActive:    p.IsActive,
		LowStock:    p.IsLowStock(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
