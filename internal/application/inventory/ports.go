package inventory

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; rollback ante cualquier error, de modo que ninguna mutación parcial
// es observable. La transacción es explícita: las operaciones anidadas (ej. el StockMutator)
// reciben el mismo repository.Set en lugar de abrir la suya.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Set) error) error
}
