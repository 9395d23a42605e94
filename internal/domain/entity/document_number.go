package entity

import (
	"fmt"
	"time"
)

// Prefijos de numeración legible.
const (
	SaleNumberPrefix          = "TRX"
	PurchaseOrderNumberPrefix = "PO"
)

// FormatDocumentNumber arma PREFIJO-YYYYMMDD-NNNN a partir del contador diario.
func FormatDocumentNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}
