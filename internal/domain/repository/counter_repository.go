package repository

import (
	"context"
	"time"
)

// CounterRepository contador diario atómico para numeración legible (TRX-, PO-).
// El incremento participa de la transacción del llamador: si ésta hace rollback el número no se consume.
type CounterRepository interface {
	Next(ctx context.Context, prefix string, day time.Time) (int, error)
}
