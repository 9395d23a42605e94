package inventory

import (
	"fmt"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// ReconciliationReport resultado de reproducir el kardex de un producto.
type ReconciliationReport struct {
	ProductID   int64  `json:"product_id"`
	Movements   int    `json:"movements"`
	ExpectedQty int    `json:"expected_qty"` // stock que resulta de reproducir el kardex
	ActualQty   int    `json:"actual_qty"`   // stock_qty actual del producto
	Consistent  bool   `json:"consistent"`
	MismatchAt  int64  `json:"mismatch_at,omitempty"` // ID del primer movimiento inconsistente
	Reason      string `json:"reason,omitempty"`
}

// Reconcile reproduce los movimientos (en orden de creación) desde 0 y verifica que cada
// stock_before coincida con el stock_after anterior, que cada fila cuadre
// (after == before + quantity) y que el saldo final sea el stock actual.
func Reconcile(productID int64, movements []*entity.StockMovement, currentQty int) ReconciliationReport {
	report := ReconciliationReport{
		ProductID: productID,
		Movements: len(movements),
		ActualQty: currentQty,
	}
	running := 0
	for _, m := range movements {
		if m.ProductID != productID {
			return report.fail(m.ID, running, fmt.Sprintf("movimiento de otro producto (%d)", m.ProductID))
		}
		if m.StockBefore != running {
			return report.fail(m.ID, running, fmt.Sprintf("stock_before %d, esperado %d", m.StockBefore, running))
		}
		if !m.Balanced() {
			return report.fail(m.ID, running, fmt.Sprintf("%d %+d != %d", m.StockBefore, m.Quantity, m.StockAfter))
		}
		if m.StockAfter < 0 {
			return report.fail(m.ID, running, fmt.Sprintf("stock_after negativo (%d)", m.StockAfter))
		}
		running = m.StockAfter
	}
	report.ExpectedQty = running
	if running != currentQty {
		report.Reason = fmt.Sprintf("saldo del kardex %d distinto del stock actual %d", running, currentQty)
		return report
	}
	report.Consistent = true
	return report
}

func (r ReconciliationReport) fail(movementID int64, running int, reason string) ReconciliationReport {
	r.ExpectedQty = running
	r.MismatchAt = movementID
	r.Reason = reason
	return r
}
