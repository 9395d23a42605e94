package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo contador diario por prefijo. El UPSERT bloquea la fila (prefix, day) hasta el fin de la tx.
type CounterRepo struct {
	q Querier
}

func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

func (r *CounterRepo) Next(ctx context.Context, prefix string, day time.Time) (int, error) {
	query := `
		INSERT INTO document_counters (prefix, day, last_value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`
	var next int
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if err := r.q.QueryRow(ctx, query, prefix, d).Scan(&next); err != nil {
		return 0, fmt.Errorf("next counter %s: %w", prefix, mapLockError(err))
	}
	return next, nil
}
