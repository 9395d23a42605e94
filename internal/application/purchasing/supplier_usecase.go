package purchasing

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

// SupplierUseCase alta, edición y baja de proveedores.
type SupplierUseCase struct {
	tx    inventory.TxRunner
	repos repository.Set
	log   *logger.Logger
	now   func() time.Time
}

func NewSupplierUseCase(tx inventory.TxRunner, repos repository.Set, log *logger.Logger) *SupplierUseCase {
	return &SupplierUseCase{tx: tx, repos: repos, log: log.Named("suppliers"), now: time.Now}
}

func (uc *SupplierUseCase) Create(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	s := &entity.Supplier{
		Name:          name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		IsActive:      in.IsActive == nil || *in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repos.Suppliers.Create(ctx, s); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("supplier_id", s.ID).Str("name", s.Name).Msg("proveedor creado")
	return dto.NewSupplierResponse(s), nil
}

func (uc *SupplierUseCase) GetByID(ctx context.Context, id int64) (*dto.SupplierResponse, error) {
	s, err := uc.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return dto.NewSupplierResponse(s), nil
}

func (uc *SupplierUseCase) Update(ctx context.Context, id int64, in dto.UpdateSupplierRequest) (*dto.SupplierResponse, error) {
	s, err := uc.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		s.Name = name
	}
	if in.ContactPerson != nil {
		s.ContactPerson = *in.ContactPerson
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.Phone != nil {
		s.Phone = *in.Phone
	}
	if in.Address != nil {
		s.Address = *in.Address
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	s.UpdatedAt = uc.now()
	if err := uc.repos.Suppliers.Update(ctx, s); err != nil {
		return nil, err
	}
	return dto.NewSupplierResponse(s), nil
}

// Delete rechaza con domain.ErrInUse si el proveedor tiene órdenes de compra; para retirarlo
// se desactiva.
func (uc *SupplierUseCase) Delete(ctx context.Context, id int64) error {
	err := uc.tx.Run(ctx, func(repos repository.Set) error {
		s, err := repos.Suppliers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		used, err := repos.Suppliers.HasPurchaseOrders(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("supplier %d has purchase orders: %w", id, domain.ErrInUse)
		}
		return repos.Suppliers.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("supplier_id", id).Msg("proveedor eliminado")
	return nil
}

func (uc *SupplierUseCase) List(ctx context.Context, filter repository.SupplierFilter) (*dto.SupplierListResponse, error) {
	list, total, err := uc.repos.Suppliers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	items := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *dto.NewSupplierResponse(s))
	}
	return &dto.SupplierListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}
