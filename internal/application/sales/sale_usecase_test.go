package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

const cashierID int64 = 11

var saleDay = time.Date(2026, 5, 20, 14, 5, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	uc    *SaleUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(2 * time.Second)
	uc := NewSaleUseCase(memory.NewTxRunner(store), store.Repos(), inventory.NewStockMutator(logger.Nop()), logger.Nop())
	uc.now = func() time.Time { return saleDay }
	return &fixture{store: store, uc: uc}
}

func (f *fixture) product(t *testing.T, sku string, stock int, price int64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		SKU: sku, Name: "Producto " + sku,
		Price: decimal.NewFromInt(price), CostPrice: decimal.NewFromInt(price / 2),
		StockQty: stock, IsActive: true,
	}
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQty
}

func (f *fixture) movements(t *testing.T, id int64) []*entity.StockMovement {
	t.Helper()
	list, err := f.store.Repos().Movements.ListByProduct(context.Background(), id)
	require.NoError(t, err)
	return list
}

func cash(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func saleOf(method string, items ...dto.SaleItemRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{Items: items, PaymentMethod: method}
}

// Escenario A: stock 10, precio 100; venta de 2 con 200 en efectivo.
func TestCreateSale_EfectivoExacto(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)

	in := saleOf("cash", dto.SaleItemRequest{ProductID: p.ID, Quantity: 2})
	in.CashGiven = cash(200)
	out, err := f.uc.Create(context.Background(), cashierID, in)
	require.NoError(t, err)

	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, out.ChangeReturn.IsZero())
	assert.Equal(t, "paid", out.PaymentStatus)
	assert.Equal(t, "completed", out.Status)
	assert.Equal(t, "TRX-20260520-0001", out.SaleNumber)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "A", out.Items[0].ProductSKU)
	assert.True(t, out.Items[0].CostPrice.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 8, f.stock(t, p.ID))

	movements := f.movements(t, p.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementTypeSale, movements[0].Type)
	assert.Equal(t, -2, movements[0].Quantity)
	assert.Equal(t, 10, movements[0].StockBefore)
	assert.Equal(t, 8, movements[0].StockAfter)
	assert.Equal(t, entity.SaleRef{SaleID: out.ID}, movements[0].Reference)
	assert.Equal(t, cashierID, movements[0].UserID)
}

func TestCreateSale_NumeracionUsaDiaUTC(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	// 22:00 en Bogotá ya es 21 de mayo en UTC
	f.uc.now = func() time.Time { return time.Date(2026, 5, 20, 22, 0, 0, 0, time.FixedZone("COT", -5*3600)) }

	in := saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 1})
	out, err := f.uc.Create(context.Background(), cashierID, in)
	require.NoError(t, err)
	assert.Equal(t, "TRX-20260521-0001", out.SaleNumber)
}

// Escenario B: stock 5, se piden 10.
func TestCreateSale_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 5, 100)

	_, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 10}))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Requested)
	assert.Equal(t, 5, insufficient.Available)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

// Si la tercera línea falla, las dos primeras no descuentan nada ni dejan movimientos.
func TestCreateSale_AtomicidadEntreLineas(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 10)
	b := f.product(t, "B", 10, 10)
	c := f.product(t, "C", 1, 10)

	_, err := f.uc.Create(context.Background(), cashierID, saleOf("debit",
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 2},
		dto.SaleItemRequest{ProductID: b.ID, Quantity: 3},
		dto.SaleItemRequest{ProductID: c.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	for _, p := range []*entity.Product{a, b, c} {
		assert.Equal(t, p.StockQty, f.stock(t, p.ID))
		assert.Empty(t, f.movements(t, p.ID))
	}
	list, err := f.uc.List(context.Background(), repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items, "no queda cabecera de venta")
}

func TestCreateSale_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 10)

	_, err := f.uc.Create(context.Background(), cashierID, saleOf("cash",
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 1},
		dto.SaleItemRequest{ProductID: 777, Quantity: 1},
	))
	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(777), notFound.ProductID)
	assert.Equal(t, 10, f.stock(t, a.ID))
}

// Dos líneas del mismo producto se validan contra la demanda total.
func TestCreateSale_LineasRepetidasSeValidanEnConjunto(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 5, 10)

	_, err := f.uc.Create(context.Background(), cashierID, saleOf("cash",
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 3},
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 3},
	))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 6, insufficient.Requested)

	out, err := f.uc.Create(context.Background(), cashierID, saleOf("cash",
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 2},
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, 0, f.stock(t, a.ID))
	assert.Len(t, f.movements(t, a.ID), 2)
}

func TestCreateSale_TotalesYPago(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 100)
	b := f.product(t, "B", 10, 35)

	in := saleOf("cash",
		dto.SaleItemRequest{ProductID: b.ID, Quantity: 2},
		dto.SaleItemRequest{ProductID: a.ID, Quantity: 1},
	)
	in.TaxAmount = decimal.RequireFromString("17.00")
	in.DiscountAmount = decimal.NewFromInt(7)
	in.CashGiven = cash(300)
	out, err := f.uc.Create(context.Background(), cashierID, in)
	require.NoError(t, err)

	assert.Equal(t, "170", out.Subtotal.String())
	assert.Equal(t, "180", out.TotalAmount.String())
	assert.Equal(t, "120", out.ChangeReturn.String())
	assert.Equal(t, a.ID, out.Items[0].ProductID, "líneas ordenadas por producto")
}

func TestCreateSale_PagoInsuficiente(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 100)

	in := saleOf("cash", dto.SaleItemRequest{ProductID: a.ID, Quantity: 2})
	in.CashGiven = cash(150)
	_, err := f.uc.Create(context.Background(), cashierID, in)

	var payment *domain.InsufficientPaymentError
	require.ErrorAs(t, err, &payment)
	assert.Equal(t, "150", payment.CashGiven.String())
	assert.Equal(t, "200", payment.Total.String())
	assert.Equal(t, 10, f.stock(t, a.ID))
}

func TestCreateSale_EstadosDePago(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 100)

	out, err := f.uc.Create(context.Background(), cashierID, saleOf("cash", dto.SaleItemRequest{ProductID: a.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "unpaid", out.PaymentStatus, "efectivo sin monto entregado")
	assert.Nil(t, out.ChangeReturn)

	in := saleOf("credit", dto.SaleItemRequest{ProductID: a.ID, Quantity: 1})
	in.CashGiven = cash(1)
	out, err = f.uc.Create(context.Background(), cashierID, in)
	require.NoError(t, err)
	assert.Equal(t, "paid", out.PaymentStatus)
	assert.Nil(t, out.CashGiven, "el monto entregado solo aplica a efectivo")
	assert.Equal(t, "TRX-20260520-0002", out.SaleNumber)
}

func TestCreateSale_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 100)
	item := dto.SaleItemRequest{ProductID: a.ID, Quantity: 1}

	negative := saleOf("cash", item)
	negative.DiscountAmount = decimal.NewFromInt(-1)
	overDiscount := saleOf("cash", item)
	overDiscount.DiscountAmount = decimal.NewFromInt(101)

	cases := map[string]dto.CreateSaleRequest{
		"sin líneas":         saleOf("cash"),
		"cantidad cero":      saleOf("cash", dto.SaleItemRequest{ProductID: a.ID}),
		"cantidad excesiva":  saleOf("cash", dto.SaleItemRequest{ProductID: a.ID, Quantity: entity.MaxLineQuantity + 1}),
		"medio desconocido":  saleOf("cheque", item),
		"descuento negativo": negative,
		"total negativo":     overDiscount,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Create(context.Background(), cashierID, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 10, f.stock(t, a.ID))
}

// Escenario D: la venta registra 5 unidades y al anular con stock 10 el producto queda en 15.
func TestCancelSale_SumaLaCantidadVendida(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	ctx := context.Background()
	repos := f.store.Repos()
	sale := &entity.Sale{
		SaleNumber:    "TRX-20260519-0001",
		Status:        entity.SaleStatusCompleted,
		PaymentStatus: entity.PaymentStatusPaid,
		PaymentMethod: entity.PaymentMethodQRIS,
		CreatedBy:     cashierID,
	}
	require.NoError(t, repos.Sales.Create(ctx, sale))
	require.NoError(t, repos.Sales.CreateItem(ctx, &entity.SaleItem{SaleID: sale.ID, ProductID: p.ID, Quantity: 5}))

	out, err := f.uc.Cancel(ctx, sale.ID, cashierID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, 15, f.stock(t, p.ID))
}

func TestCancelSale_DevuelveStockConMovimiento(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)

	sale, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, p.ID))

	out, err := f.uc.Cancel(context.Background(), sale.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, "paid", out.PaymentStatus)
	assert.Equal(t, "[Cancelada por usuario ID: 99 el 2026-05-20 14:05:00]", out.Notes)
	assert.Equal(t, 10, f.stock(t, p.ID))

	movements := f.movements(t, p.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, entity.MovementTypeSaleCancel, movements[1].Type)
	assert.Equal(t, 5, movements[1].Quantity)
	assert.Equal(t, 5, movements[1].StockBefore)
	assert.Equal(t, 10, movements[1].StockAfter)
	assert.Equal(t, int64(99), movements[1].UserID)
	assert.Equal(t, entity.SaleRef{SaleID: sale.ID}, movements[1].Reference)
}

func TestCancelSale_ConservaNotasPrevias(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	in := saleOf("debit", dto.SaleItemRequest{ProductID: p.ID, Quantity: 1})
	in.Notes = "mesa 4"
	sale, err := f.uc.Create(context.Background(), cashierID, in)
	require.NoError(t, err)

	out, err := f.uc.Cancel(context.Background(), sale.ID, cashierID)
	require.NoError(t, err)
	assert.Equal(t, "mesa 4\n[Cancelada por usuario ID: 11 el 2026-05-20 14:05:00]", out.Notes)
}

func TestCancelSale_SegundaAnulacionFalla(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	sale, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)

	_, err = f.uc.Cancel(context.Background(), sale.ID, cashierID)
	require.NoError(t, err)
	_, err = f.uc.Cancel(context.Background(), sale.ID, cashierID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	assert.Equal(t, 10, f.stock(t, p.ID))
	assert.Len(t, f.movements(t, p.ID), 2)
}

func TestCancelSale_Inexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Cancel(context.Background(), 123, cashierID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelSale_ConcurrenteSoloUnaGana(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	sale, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)

	results := make([]error, 5)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.uc.Cancel(context.Background(), sale.ID, cashierID)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 10, f.stock(t, p.ID))
}

func TestCreateSale_ConcurrentesDentroDelStock(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 100, 10)
	b := f.product(t, "B", 100, 10)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		// órdenes de líneas invertidos para forzar el orden de bloqueo
		first, second := a.ID, b.ID
		if i%2 == 1 {
			first, second = second, first
		}
		g.Go(func() error {
			_, err := f.uc.Create(context.Background(), cashierID, saleOf("qris",
				dto.SaleItemRequest{ProductID: first, Quantity: 2},
				dto.SaleItemRequest{ProductID: second, Quantity: 3},
			))
			return err
		})
	}
	require.NoError(t, g.Wait())

	// 10 ventas con 2 de A y 10 con 3 de A, y al revés para B
	assert.Equal(t, 50, f.stock(t, a.ID))
	assert.Equal(t, 50, f.stock(t, b.ID))

	list, err := f.uc.List(context.Background(), repository.SaleFilter{})
	require.NoError(t, err)
	numbers := make(map[string]bool, len(list.Items))
	for _, s := range list.Items {
		numbers[s.SaleNumber] = true
	}
	assert.Len(t, numbers, 20, "numeración sin duplicados")

	for _, p := range []*entity.Product{a, b} {
		movements := f.movements(t, p.ID)
		assert.Len(t, movements, 20)
		running := p.StockQty
		for _, m := range movements {
			assert.Equal(t, running, m.StockBefore)
			running = m.StockAfter
		}
		assert.Equal(t, 50, running)
	}
}

func TestCreateSale_ConcurrentesSobreElStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 10)

	results := make([]error, 8)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 3}))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock), err)
	}
	assert.Equal(t, 3, succeeded, "solo caben tres ventas de 3 en 10")
	assert.Equal(t, 1, f.stock(t, p.ID))
}

func TestSales_GetYList(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A", 10, 100)
	first, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := f.uc.Create(context.Background(), cashierID, saleOf("qris", dto.SaleItemRequest{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.uc.Cancel(context.Background(), first.ID, cashierID)
	require.NoError(t, err)

	got, err := f.uc.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = f.uc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.uc.List(context.Background(), repository.SaleFilter{Status: entity.SaleStatusCancelled})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, first.ID, list.Items[0].ID)

	list, err = f.uc.List(context.Background(), repository.SaleFilter{NumberPrefix: "TRX-20260520", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Page.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, second.ID, list.Items[0].ID, "más reciente primero")
}
