package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

func TestCategory_CRUDyOrden(t *testing.T) {
	store := memory.New(time.Second)
	uc := NewCategoryUseCase(memory.NewTxRunner(store), store.Repos(), logger.Nop())
	ctx := context.Background()

	off := false
	_, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: "Limpieza"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: "Bebidas", IsActive: &off})
	require.NoError(t, err)
	assert.False(t, b.IsActive)

	_, err = uc.Create(ctx, dto.CreateCategoryRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	all, err := uc.List(ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bebidas", all[0].Name)
	assert.Nil(t, all[0].ProductCount)

	on := true
	active, err := uc.List(ctx, &on, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Limpieza", active[0].Name)
	require.NotNil(t, active[0].ProductCount)
	assert.Zero(t, *active[0].ProductCount)

	desc := "Gaseosas y jugos"
	updated, err := uc.Update(ctx, b.ID, dto.UpdateCategoryRequest{Description: &desc, IsActive: &on})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.True(t, updated.IsActive)

	require.NoError(t, uc.Delete(ctx, b.ID))
	_, err = uc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, b.ID), domain.ErrNotFound)
}

func TestCategory_ConProductosNoSeElimina(t *testing.T) {
	products, store := newUseCase()
	uc := NewCategoryUseCase(memory.NewTxRunner(store), store.Repos(), logger.Nop())
	ctx := context.Background()

	cat, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: "Panadería"})
	require.NoError(t, err)
	p, err := products.Create(ctx, 1, dto.CreateProductRequest{SKU: "PAN", Name: "Pan", CategoryID: &cat.ID})
	require.NoError(t, err)

	got, err := uc.GetByID(ctx, cat.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProductCount)
	assert.Equal(t, 1, *got.ProductCount)

	assert.ErrorIs(t, uc.Delete(ctx, cat.ID), domain.ErrInUse)

	require.NoError(t, products.Delete(ctx, p.ID, false))
	got, err = uc.GetByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.Zero(t, *got.ProductCount, "las bajas lógicas no cuentan")
	assert.ErrorIs(t, uc.Delete(ctx, cat.ID), domain.ErrInUse, "pero siguen bloqueando el borrado")

	require.NoError(t, products.Delete(ctx, p.ID, true))
	assert.NoError(t, uc.Delete(ctx, cat.ID))
}
