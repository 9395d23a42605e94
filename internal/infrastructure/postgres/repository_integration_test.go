//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/pos-inventario-api/internal/application/catalog"
	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/application/purchasing"
	"github.com/jhoicas/pos-inventario-api/internal/application/sales"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

func seedProduct(t *testing.T, repos repository.Set, sku string, stock int, cost string) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		SKU: sku, Name: "Producto " + sku,
		Price: decimal.RequireFromString("100"), CostPrice: decimal.RequireFromString(cost),
		StockQty: stock, MinStock: 2, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestPostgres_ProductoCRUDySKUDuplicado(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)

	p := seedProduct(t, repos, "SKU-1", 4, "50")
	assert.NotZero(t, p.ID)

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.StockQty)
	assert.True(t, got.CostPrice.Equal(decimal.RequireFromString("50")))

	missing, err := repos.Products.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &entity.Product{SKU: "SKU-1", Name: "otro", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, repos.Products.Create(ctx, dup), domain.ErrDuplicate)

	low, err := repos.Products.ListLowStock(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestPostgres_ContadorDiarioEsAtomico(t *testing.T) {
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool, 2*time.Second)
	day := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

	var g errgroup.Group
	got := make([]int, 10)
	for i := range got {
		g.Go(func() error {
			return runner.Run(context.Background(), func(repos repository.Set) error {
				n, err := repos.Counters.Next(context.Background(), entity.SaleNumberPrefix, day)
				got[i] = n
				return err
			})
		})
	}
	require.NoError(t, g.Wait())
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
}

func TestPostgres_RollbackNoDejaRastro(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)
	runner := postgres.NewTxRunner(pool, time.Second)
	p := seedProduct(t, repos, "SKU-RB", 10, "5")

	boom := errors.New("boom")
	err := runner.Run(ctx, func(tx repository.Set) error {
		locked, err := tx.Products.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		locked.StockQty = 3
		if err := tx.Products.UpdateStock(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQty)
}

func TestPostgres_VentaYCancelacion(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)
	runner := postgres.NewTxRunner(pool, 2*time.Second)
	log := logger.Nop()
	mutator := inventory.NewStockMutator(log)
	uc := sales.NewSaleUseCase(runner, repos, mutator, log)
	products := catalog.NewProductUseCase(runner, repos, mutator, log)

	p, err := products.Create(ctx, 1, dto.CreateProductRequest{
		SKU: "SKU-V", Name: "Vela", Price: decimal.RequireFromString("100"),
		CostPrice: decimal.RequireFromString("40"), InitialStock: 10,
	})
	require.NoError(t, err)

	sale, err := uc.Create(ctx, 1, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 5}},
		PaymentMethod: string(entity.PaymentMethodQRIS),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TRX-\d{8}-0001$`, sale.SaleNumber)

	got, _ := repos.Products.GetByID(ctx, p.ID)
	assert.Equal(t, 5, got.StockQty)

	_, err = uc.Cancel(ctx, sale.ID, 1)
	require.NoError(t, err)
	got, _ = repos.Products.GetByID(ctx, p.ID)
	assert.Equal(t, 10, got.StockQty)

	_, err = uc.Cancel(ctx, sale.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	movs, err := repos.Movements.ListByReference(ctx, entity.SaleRef{SaleID: sale.ID})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeSale, movs[0].Type)
	assert.Equal(t, entity.MovementTypeSaleCancel, movs[1].Type)
	assert.Equal(t, entity.SaleRef{SaleID: sale.ID}, movs[1].Reference)

	all, err := repos.Movements.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entity.NoRef{}, all[0].Reference)

	ledger := inventory.NewLedgerUseCase(runner, repos, log)
	report, err := ledger.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestPostgres_VentasConcurrentesNoSobrevenden(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)
	runner := postgres.NewTxRunner(pool, 5*time.Second)
	log := logger.Nop()
	uc := sales.NewSaleUseCase(runner, repos, inventory.NewStockMutator(log), log)

	p := seedProduct(t, repos, "SKU-C", 6, "10")

	var g errgroup.Group
	results := make([]error, 8)
	for i := range results {
		g.Go(func() error {
			_, results[i] = uc.Create(ctx, 1, dto.CreateSaleRequest{
				Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 2}},
				PaymentMethod: string(entity.PaymentMethodDebit),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 3, ok)

	got, _ := repos.Products.GetByID(ctx, p.ID)
	assert.Equal(t, 0, got.StockQty)
}

func TestPostgres_RecepcionDeOrdenDeCompra(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)
	runner := postgres.NewTxRunner(pool, 2*time.Second)
	log := logger.Nop()
	uc := purchasing.NewPurchaseOrderUseCase(runner, repos, inventory.NewStockMutator(log), log)

	p := seedProduct(t, repos, "SKU-PO", 10, "50")
	now := time.Now().UTC()
	supplier := &entity.Supplier{Name: "Distribuidora", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repos.Suppliers.Create(ctx, supplier))

	_, err := uc.Create(ctx, 3, dto.CreatePurchaseOrderRequest{
		SupplierID: supplier.ID + 1,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.RequireFromString("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrSupplierNotFound)

	po, err := uc.Create(ctx, 3, dto.CreatePurchaseOrderRequest{
		SupplierID: supplier.ID,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 20, UnitCost: decimal.RequireFromString("60")}},
	})
	require.NoError(t, err)

	received, err := uc.Receive(ctx, po.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, string(entity.PurchaseOrderReceived), received.Status)

	got, _ := repos.Products.GetByID(ctx, p.ID)
	assert.Equal(t, 30, got.StockQty)
	assert.True(t, got.CostPrice.Equal(decimal.RequireFromString("60")))

	_, err = uc.Receive(ctx, po.ID, 3)
	assert.ErrorIs(t, err, domain.ErrAlreadyReceived)

	assert.ErrorIs(t, repos.Suppliers.Delete(ctx, supplier.ID), domain.ErrInUse, "la FK protege al proveedor")
}

func TestPostgres_CategoriasYBajaDeProducto(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := postgres.Repos(pool)
	runner := postgres.NewTxRunner(pool, 2*time.Second)
	log := logger.Nop()
	products := catalog.NewProductUseCase(runner, repos, inventory.NewStockMutator(log), log)
	categories := catalog.NewCategoryUseCase(runner, repos, log)

	cat, err := categories.Create(ctx, dto.CreateCategoryRequest{Name: "Bebidas"})
	require.NoError(t, err)
	p, err := products.Create(ctx, 1, dto.CreateProductRequest{
		SKU: "AGUA", Name: "Agua", Price: decimal.RequireFromString("1.50"), CategoryID: &cat.ID, InitialStock: 3,
	})
	require.NoError(t, err)

	missing := cat.ID + 100
	_, err = products.Create(ctx, 1, dto.CreateProductRequest{SKU: "JUGO", Name: "Jugo", CategoryID: &missing})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	assert.ErrorIs(t, products.Delete(ctx, p.ID, true), domain.ErrInUse)
	require.NoError(t, products.Delete(ctx, p.ID, false))
	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	movements, err := repos.Movements.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	assert.ErrorIs(t, categories.Delete(ctx, cat.ID), domain.ErrInUse, "la baja lógica sigue referenciando la categoría")
}
