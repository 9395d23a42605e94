package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
)

// PurchaseOrderStatus pending -> ordered -> received; pending -> cancelled.
// received y cancelled son terminales.
type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "pending"
	PurchaseOrderOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderReceived  PurchaseOrderStatus = "received"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrder cabecera de orden de compra a proveedor.
type PurchaseOrder struct {
	ID                   int64
	SupplierID           int64
	PurchaseNumber       string // PO-YYYYMMDD-NNNN
	Status               PurchaseOrderStatus
	OrderedAt            *time.Time
	ExpectedDeliveryDate *time.Time
	ReceivedAt           *time.Time
	ReceivedBy           *int64
	Notes                string
	CreatedBy            int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []PurchaseOrderItem
}

// PurchaseOrderItem línea de la orden de compra.
type PurchaseOrderItem struct {
	ID              int64
	PurchaseOrderID int64
	ProductID       int64
	Quantity        int
	UnitCost        decimal.Decimal
	Subtotal        decimal.Decimal
}

// Total suma los subtotales de las líneas.
func (po *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range po.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// CanReceive valida la transición a received.
func (po *PurchaseOrder) CanReceive() error {
	switch po.Status {
	case PurchaseOrderReceived:
		return domain.ErrAlreadyReceived
	case PurchaseOrderCancelled:
		return domain.ErrCannotReceiveCancelled
	case PurchaseOrderPending, PurchaseOrderOrdered:
		return nil
	}
	return domain.ErrInvalidTransition
}

// CanMarkOrdered solo una orden pendiente puede enviarse al proveedor.
func (po *PurchaseOrder) CanMarkOrdered() error {
	if po.Status != PurchaseOrderPending {
		return domain.ErrInvalidTransition
	}
	return nil
}

// CanCancel solo se cancelan órdenes pendientes.
func (po *PurchaseOrder) CanCancel() error {
	if po.Status != PurchaseOrderPending {
		return domain.ErrInvalidTransition
	}
	return nil
}
