package repository

import (
	"context"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// CategoryRepository puerto de persistencia de categorías. GetByID devuelve (nil, nil) si no existe.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id int64) error
	// List ordena por nombre; active nil no filtra.
	List(ctx context.Context, active *bool) ([]*entity.Category, error)
	// CountProducts cuenta los productos no dados de baja de la categoría.
	CountProducts(ctx context.Context, id int64) (int, error)
}
