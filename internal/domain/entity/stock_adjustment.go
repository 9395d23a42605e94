package entity

import "time"

// AdjustmentReason motivo de un ajuste manual.
type AdjustmentReason string

const (
	AdjustmentDamaged    AdjustmentReason = "damaged"
	AdjustmentLost       AdjustmentReason = "lost"
	AdjustmentCorrection AdjustmentReason = "correction"
	AdjustmentOther      AdjustmentReason = "other"
)

func (r AdjustmentReason) Valid() bool {
	switch r {
	case AdjustmentDamaged, AdjustmentLost, AdjustmentCorrection, AdjustmentOther:
		return true
	}
	return false
}

// StockAdjustment cabecera de un lote de ajustes (toma física / opname).
// Sus movimientos apuntan a ella con StockAdjustmentRef.
type StockAdjustment struct {
	ID        int64
	Reason    AdjustmentReason
	Notes     string
	CreatedBy int64
	CreatedAt time.Time
	Movements []StockMovement
}
