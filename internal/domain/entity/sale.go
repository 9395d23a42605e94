package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de la venta.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// PaymentStatus estado del cobro.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusRefund PaymentStatus = "refund"
)

// PaymentMethod medio de pago.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodQRIS   PaymentMethod = "qris"
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodCredit PaymentMethod = "credit"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodQRIS, PaymentMethodDebit, PaymentMethodCredit:
		return true
	}
	return false
}

// Sale cabecera de una venta (transacción de caja).
type Sale struct {
	ID             int64
	SaleNumber     string // TRX-YYYYMMDD-NNNN
	Status         SaleStatus
	PaymentStatus  PaymentStatus
	PaymentMethod  PaymentMethod
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	CashGiven      *decimal.Decimal // solo efectivo
	ChangeReturn   *decimal.Decimal
	Notes          string
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []SaleItem
}

// SaleItem línea de venta. Nombre, SKU, precio y costo son una foto al momento de la venta.
type SaleItem struct {
	ID          int64
	SaleID      int64
	ProductID   int64
	ProductName string
	ProductSKU  string
	Quantity    int
	Price       decimal.Decimal
	CostPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}
