package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Límites de cantidad. stock_qty es INTEGER en la base; una línea de venta, de compra o
// de ajuste no mueve más de MaxLineQuantity unidades.
const (
	MaxStockQty     = math.MaxInt32
	MaxLineQuantity = 1_000_000
)

// Product representa un producto del catálogo.
// StockQty solo lo modifica el StockMutator (dentro de una transacción, con la fila bloqueada);
// CostPrice solo lo modifica la recepción de órdenes de compra (último costo).
type Product struct {
	ID          int64
	SKU         string // código único
	Name        string
	Description string
	CategoryID  *int64
	Price       decimal.Decimal // precio de venta
	CostPrice   decimal.Decimal // último costo de compra
	StockQty    int             // siempre >= 0
	MinStock    int             // umbral de stock bajo
	IsActive    bool
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time // baja lógica; los repositorios no devuelven productos dados de baja
}

// IsLowStock indica si el stock está en o por debajo del mínimo configurado.
func (p *Product) IsLowStock() bool {
	return p.StockQty <= p.MinStock
}
