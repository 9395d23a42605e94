package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// CategoryUseCase categorías del catálogo.
type CategoryUseCase struct {
	tx    inventory.TxRunner
	repos repository.Set
	log   *logger.Logger
	now   func() time.Time
}

func NewCategoryUseCase(tx inventory.TxRunner, repos repository.Set, log *logger.Logger) *CategoryUseCase {
	return &CategoryUseCase{tx: tx, repos: repos, log: log.Named("catalog"), now: time.Now}
}

func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	c := &entity.Category{
		Name:        name,
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repos.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return dto.NewCategoryResponse(c), nil
}

// GetByID incluye la cantidad de productos de la categoría.
func (uc *CategoryUseCase) GetByID(ctx context.Context, id int64) (*dto.CategoryResponse, error) {
	c, err := uc.repos.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.NewCategoryResponse(c)
	n, err := uc.repos.Categories.CountProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	out.ProductCount = &n
	return out, nil
}

func (uc *CategoryUseCase) Update(ctx context.Context, id int64, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.repos.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = uc.now()
	if err := uc.repos.Categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return dto.NewCategoryResponse(c), nil
}

// Delete rechaza con domain.ErrInUse si la categoría tiene productos.
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		c, err := repos.Categories.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		n, err := repos.Categories.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("category %d has %d products: %w", id, n, domain.ErrInUse)
		}
		return repos.Categories.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("category_id", id).Msg("categoría eliminada")
	return nil
}

// List ordena por nombre. withCount agrega product_count a cada categoría.
func (uc *CategoryUseCase) List(ctx context.Context, active *bool, withCount bool) ([]dto.CategoryResponse, error) {
	list, err := uc.repos.Categories.List(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		resp := dto.NewCategoryResponse(c)
		if withCount {
			n, err := uc.repos.Categories.CountProducts(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			resp.ProductCount = &n
		}
		out = append(out, *resp)
	}
	return out, nil
}
