package memory

import (
	"context"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo contador diario. Dentro de una tx bloquea la clave (prefix, día) hasta el commit,
// así dos transacciones concurrentes nunca obtienen el mismo número.
type CounterRepo struct {
	session
}

func (r *CounterRepo) Next(ctx context.Context, prefix string, day time.Time) (int, error) {
	key := "counter:" + prefix + ":" + day.Format("20060102")
	if err := r.lock(ctx, key); err != nil {
		return 0, err
	}
	if r.tx != nil {
		if v, ok := r.tx.counters[key]; ok {
			r.tx.counters[key] = v + 1
			return v + 1, nil
		}
		r.s.mu.RLock()
		v := r.s.counters[key]
		r.s.mu.RUnlock()
		r.tx.counters[key] = v + 1
		return v + 1, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counters[key]++
	return r.s.counters[key], nil
}
