package entity

import (
	"fmt"
	"time"
)

// MovementType tipo de movimiento del kardex.
type MovementType string

const (
	MovementTypePurchase   MovementType = "purchase"    // entrada por recepción de compra
	MovementTypeSale       MovementType = "sale"        // salida por venta
	MovementTypeAdjustment MovementType = "adjustment"  // ajuste manual (opname)
	MovementTypeSaleCancel MovementType = "sale_cancel" // reingreso por anulación de venta
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypePurchase, MovementTypeSale, MovementTypeAdjustment, MovementTypeSaleCancel:
		return true
	}
	return false
}

// ReferenceKind discrimina el documento de origen de un movimiento.
type ReferenceKind string

const (
	ReferenceNone            ReferenceKind = ""
	ReferenceSale            ReferenceKind = "sale"
	ReferencePurchaseOrder   ReferenceKind = "purchase_order"
	ReferenceStockAdjustment ReferenceKind = "stock_adjustment"
)

// Reference es una unión cerrada: SaleRef, PurchaseOrderRef, StockAdjustmentRef o NoRef.
// El método no exportado impide implementaciones fuera de este paquete.
type Reference interface {
	Kind() ReferenceKind
	// RefID devuelve el ID del documento; 0 para NoRef.
	RefID() int64
	isReference()
}

type SaleRef struct{ SaleID int64 }

func (r SaleRef) Kind() ReferenceKind { return ReferenceSale }
func (r SaleRef) RefID() int64        { return r.SaleID }
func (SaleRef) isReference()          {}

type PurchaseOrderRef struct{ PurchaseOrderID int64 }

func (r PurchaseOrderRef) Kind() ReferenceKind { return ReferencePurchaseOrder }
func (r PurchaseOrderRef) RefID() int64        { return r.PurchaseOrderID }
func (PurchaseOrderRef) isReference()          {}

type StockAdjustmentRef struct{ StockAdjustmentID int64 }

func (r StockAdjustmentRef) Kind() ReferenceKind { return ReferenceStockAdjustment }
func (r StockAdjustmentRef) RefID() int64        { return r.StockAdjustmentID }
func (StockAdjustmentRef) isReference()          {}

type NoRef struct{}

func (NoRef) Kind() ReferenceKind { return ReferenceNone }
func (NoRef) RefID() int64        { return 0 }
func (NoRef) isReference()        {}

// NewReference reconstruye la referencia desde las columnas persistidas (reference_type, reference_id).
func NewReference(kind ReferenceKind, id int64) (Reference, error) {
	switch kind {
	case ReferenceNone:
		return NoRef{}, nil
	case ReferenceSale:
		return SaleRef{SaleID: id}, nil
	case ReferencePurchaseOrder:
		return PurchaseOrderRef{PurchaseOrderID: id}, nil
	case ReferenceStockAdjustment:
		return StockAdjustmentRef{StockAdjustmentID: id}, nil
	}
	return nil, fmt.Errorf("tipo de referencia desconocido: %q", kind)
}

// StockMovement es una entrada inmutable del kardex.
// Quantity es con signo: positivo entra stock, negativo sale.
type StockMovement struct {
	ID            int64
	TransactionID string // agrupa los movimientos de una misma operación compuesta
	ProductID     int64
	Type          MovementType
	Reference     Reference
	Quantity      int
	StockBefore   int
	StockAfter    int
	UserID        int64
	CreatedAt     time.Time
}

// Balanced verifica StockAfter == StockBefore + Quantity.
func (m *StockMovement) Balanced() bool {
	return m.StockAfter == m.StockBefore+m.Quantity
}
