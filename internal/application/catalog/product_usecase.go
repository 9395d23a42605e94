package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// ProductUseCase casos de uso CRUD para productos. Stock y costo se manejan vía movimientos:
// el stock inicial entra como ajuste en el kardex y cost_price solo lo cambia la recepción de compras.
type ProductUseCase struct {
	tx      inventory.TxRunner
	repos   repository.Set
	mutator *inventory.StockMutator
	log     *logger.Logger
	now     func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx inventory.TxRunner, repos repository.Set, mutator *inventory.StockMutator, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{tx: tx, repos: repos, mutator: mutator, log: log.Named("catalog"), now: time.Now}
}

// Create crea un producto activo con stock 0 y, si InitialStock > 0, registra la entrada inicial
// en la misma transacción (ajuste sin documento de referencia).
func (uc *ProductUseCase) Create(ctx context.Context, actorID int64, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" || in.Price.IsNegative() || in.CostPrice.IsNegative() ||
		in.MinStock < 0 || in.MinStock > entity.MaxStockQty ||
		in.InitialStock < 0 || in.InitialStock > entity.MaxLineQuantity {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	product := &entity.Product{
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		CostPrice:   in.CostPrice,
		MinStock:    in.MinStock,
		IsActive:    true,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		if err := checkCategory(ctx, repos, in.CategoryID); err != nil {
			return err
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		locked, err := repos.Products.GetForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return &domain.ProductNotFoundError{ProductID: product.ID}
		}
		if _, err := uc.mutator.Apply(ctx, repos, inventory.Mutation{
			Product:       locked,
			Delta:         in.InitialStock,
			Type:          entity.MovementTypeAdjustment,
			Reference:     entity.NoRef{},
			ActorID:       actorID,
			TransactionID: uuid.NewString(),
		}); err != nil {
			return err
		}
		product = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("product_id", product.ID).Str("sku", product.SKU).Int("stock_qty", product.StockQty).Msg("producto creado")
	return dto.NewProductResponse(product), nil
}

// GetByID obtiene un producto por ID; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewProductResponse(product), nil
}

// Update actualiza datos de catálogo con la fila bloqueada. No permite modificar stock ni costo.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		var err error
		product, err = repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.ErrInvalidInput
			}
			product.Name = name
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.CategoryID != nil {
			if err := checkCategory(ctx, repos, in.CategoryID); err != nil {
				return err
			}
			product.CategoryID = in.CategoryID
		}
		if in.Price != nil {
			if in.Price.IsNegative() {
				return domain.ErrInvalidInput
			}
			product.Price = *in.Price
		}
		if in.MinStock != nil {
			if *in.MinStock < 0 || *in.MinStock > entity.MaxStockQty {
				return domain.ErrInvalidInput
			}
			product.MinStock = *in.MinStock
		}
		if in.IsActive != nil {
			product.IsActive = *in.IsActive
		}
		product.UpdatedAt = uc.now()
		return repos.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

// List lista productos con búsqueda por nombre o SKU y paginación.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	list, total, err := uc.repos.Products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *dto.NewProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

// Delete da de baja el producto (baja lógica): deja de listarse y de venderse, y el kardex
// conserva su historial. Con force borra la fila, solo si ningún movimiento ni documento la referencia.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64, force bool) error {
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		if force {
			used, err := repos.Products.IsReferenced(ctx, id)
			if err != nil {
				return err
			}
			if used {
				return fmt.Errorf("product %d has ledger history: %w", id, domain.ErrInUse)
			}
			return repos.Products.Delete(ctx, id)
		}
		product, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		now := uc.now()
		product.IsActive = false
		product.DeletedAt = &now
		product.UpdatedAt = now
		return repos.Products.SoftDelete(ctx, product)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("product_id", id).Bool("force", force).Msg("producto eliminado")
	return nil
}

// checkCategory valida que la categoría exista; id nil no asigna categoría.
func checkCategory(ctx context.Context, repos repository.Set, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := repos.Categories.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("category %d: %w", *id, domain.ErrCategoryNotFound)
	}
	return nil
}
