package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-inventario-api/internal/application/catalog"
	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/application/purchasing"
	"github.com/jhoicas/pos-inventario-api/internal/application/sales"
	ledger "github.com/jhoicas/pos-inventario-api/internal/domain/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/pos-inventario-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-inventario-api/pkg/jwt"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

type apiFixture struct {
	app *fiber.App
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := logger.Nop()
	store := memory.New(2 * time.Second)
	tx := memory.NewTxRunner(store)
	repos := store.Repos()
	mutator := inventory.NewStockMutator(log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:       catalog.NewProductUseCase(tx, repos, mutator, log),
		CategoryUC:      catalog.NewCategoryUseCase(tx, repos, log),
		SupplierUC:      purchasing.NewSupplierUseCase(tx, repos, log),
		SaleUC:          sales.NewSaleUseCase(tx, repos, mutator, log),
		PurchaseOrderUC: purchasing.NewPurchaseOrderUseCase(tx, repos, mutator, log),
		AdjustmentUC:    inventory.NewAdjustmentUseCase(tx, repos, mutator, log),
		LedgerUC:        inventory.NewLedgerUseCase(tx, repos, log),
		Replenishment:   inventory.NewReplenishmentUseCase(repos.Products),
		JWTSecret:       testJWTSecret,
		Logger:          log,
	})
	return &apiFixture{app: app}
}

// call envía body como JSON (si no es nil) con un token del rol indicado y decodifica la respuesta en out.
func (f *apiFixture) call(t *testing.T, method, path, role string, body, out any) int {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, testUserID, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *apiFixture) createProduct(t *testing.T, sku string, stock, minStock int) dto.ProductResponse {
	t.Helper()
	var p dto.ProductResponse
	status := f.call(t, http.MethodPost, "/api/products", pkgjwt.RoleStocker, dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku,
		Price: decimal.NewFromInt(100), CostPrice: decimal.NewFromInt(50),
		MinStock: minStock, InitialStock: stock,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	return p
}

func TestAPI_ProductoConStockInicial(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-1", 10, 2)
	assert.Equal(t, 10, p.StockQty)

	var got dto.ProductResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleCashier, nil, &got))
	assert.Equal(t, "SKU-1", got.SKU)

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/products", pkgjwt.RoleStocker, dto.CreateProductRequest{SKU: "SKU-1", Name: "otro"}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", errResp.Code)

	status = api.call(t, http.MethodPost, "/api/products", pkgjwt.RoleCashier, dto.CreateProductRequest{SKU: "SKU-2", Name: "x"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_VentaYAnulacion(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-V", 10, 0)

	var sale dto.SaleResponse
	status := api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 3}},
		PaymentMethod: "debit",
	}, &sale)
	require.Equal(t, http.StatusCreated, status)
	assert.Regexp(t, `^TRX-\d{8}-0001$`, sale.SaleNumber)
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(300)))

	var prod dto.ProductResponse
	api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleAdmin, nil, &prod)
	assert.Equal(t, 7, prod.StockQty)

	cancelPath := "/api/sales/" + itoa(sale.ID) + "/cancel"
	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodPost, cancelPath, pkgjwt.RoleCashier, nil, nil))

	var cancelled dto.SaleResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, cancelPath, pkgjwt.RoleAdmin, nil, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Contains(t, cancelled.Notes, "[Cancelada por usuario ID: 7 el ")

	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodPost, cancelPath, pkgjwt.RoleAdmin, nil, &errResp))
	assert.Equal(t, "ALREADY_CANCELLED", errResp.Code)

	api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleAdmin, nil, &prod)
	assert.Equal(t, 10, prod.StockQty)

	var report ledger.ReconciliationReport
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/inventory/products/"+itoa(p.ID)+"/reconcile", pkgjwt.RoleAdmin, nil, &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 3, report.Movements)
}

func TestAPI_VentaRechazada(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-R", 2, 0)

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 5}},
		PaymentMethod: "cash",
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)

	status = api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: 999, Quantity: 1}},
		PaymentMethod: "cash",
	}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errResp.Code)

	cash := decimal.NewFromInt(50)
	status = api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: "cash",
		CashGiven:     &cash,
	}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_PAYMENT", errResp.Code)

	status = api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{PaymentMethod: "cash"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errResp.Code)

	status = api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 1}},
		PaymentMethod: "bitcoin",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	var prod dto.ProductResponse
	api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleAdmin, nil, &prod)
	assert.Equal(t, 2, prod.StockQty)

	assert.Equal(t, http.StatusNotFound, api.call(t, http.MethodGet, "/api/sales/999", pkgjwt.RoleAdmin, nil, nil))
}

func TestAPI_RecepcionDeOrdenDeCompra(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-PO", 10, 0)

	var supplier dto.SupplierResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/suppliers", pkgjwt.RoleStocker,
		dto.CreateSupplierRequest{Name: "Distribuidora Norte", Email: "ventas@norte.test"}, &supplier))
	assert.True(t, supplier.IsActive)

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/purchase-orders", pkgjwt.RoleStocker, dto.CreatePurchaseOrderRequest{
		SupplierID: 404,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.NewFromInt(60)}},
	}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "SUPPLIER_NOT_FOUND", errResp.Code)

	var po dto.PurchaseOrderResponse
	status = api.call(t, http.MethodPost, "/api/purchase-orders", pkgjwt.RoleStocker, dto.CreatePurchaseOrderRequest{
		SupplierID: supplier.ID,
		Items:      []dto.PurchaseOrderItemRequest{{ProductID: p.ID, Quantity: 20, UnitCost: decimal.NewFromInt(60)}},
	}, &po)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "pending", po.Status)

	base := "/api/purchase-orders/" + itoa(po.ID)
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, base+"/order", pkgjwt.RoleStocker, nil, &po))
	assert.Equal(t, "ordered", po.Status)

	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, base+"/receive", pkgjwt.RoleStocker, nil, &po))
	assert.Equal(t, "received", po.Status)

	var prod dto.ProductResponse
	api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleAdmin, nil, &prod)
	assert.Equal(t, 30, prod.StockQty)
	assert.True(t, prod.CostPrice.Equal(decimal.NewFromInt(60)))

	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodPost, base+"/receive", pkgjwt.RoleStocker, nil, &errResp))
	assert.Equal(t, "ALREADY_RECEIVED", errResp.Code)

	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodGet, base, pkgjwt.RoleCashier, nil, nil))

	supplierPath := "/api/suppliers/" + itoa(supplier.ID)
	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodDelete, supplierPath, pkgjwt.RoleStocker, nil, nil))
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodDelete, supplierPath, pkgjwt.RoleAdmin, nil, &errResp))
	assert.Equal(t, "IN_USE", errResp.Code)
}

func TestAPI_Proveedores(t *testing.T) {
	api := newAPI(t)
	for _, name := range []string{"Zeta SA", "Alfa Ltda"} {
		require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/suppliers", pkgjwt.RoleStocker,
			dto.CreateSupplierRequest{Name: name, ContactPerson: "Ana"}, nil))
	}
	inactive := false
	var idle dto.SupplierResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/suppliers", pkgjwt.RoleAdmin,
		dto.CreateSupplierRequest{Name: "Beta", IsActive: &inactive}, &idle))

	var list dto.SupplierListResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/suppliers?active=true", pkgjwt.RoleStocker, nil, &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Alfa Ltda", list.Items[0].Name, "orden por nombre")
	assert.Equal(t, 2, list.Page.Total)

	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/suppliers?search=ana", pkgjwt.RoleStocker, nil, &list))
	assert.Len(t, list.Items, 2)

	assert.Equal(t, http.StatusBadRequest, api.call(t, http.MethodPost, "/api/suppliers", pkgjwt.RoleStocker,
		dto.CreateSupplierRequest{Name: "x", Email: "no-es-correo"}, nil))
	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodGet, "/api/suppliers", pkgjwt.RoleCashier, nil, nil))

	name := "Beta SRL"
	var updated dto.SupplierResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, "/api/suppliers/"+itoa(idle.ID), pkgjwt.RoleStocker,
		dto.UpdateSupplierRequest{Name: &name}, &updated))
	assert.Equal(t, "Beta SRL", updated.Name)
	assert.False(t, updated.IsActive)

	assert.Equal(t, http.StatusNoContent, api.call(t, http.MethodDelete, "/api/suppliers/"+itoa(idle.ID), pkgjwt.RoleAdmin, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.call(t, http.MethodGet, "/api/suppliers/"+itoa(idle.ID), pkgjwt.RoleAdmin, nil, nil))
}

func TestAPI_CategoriasYBajaDeProducto(t *testing.T) {
	api := newAPI(t)
	var cat dto.CategoryResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/categories", pkgjwt.RoleStocker,
		dto.CreateCategoryRequest{Name: "Bebidas"}, &cat))

	var p dto.ProductResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/products", pkgjwt.RoleStocker, dto.CreateProductRequest{
		SKU: "BEB-1", Name: "Agua", Price: decimal.NewFromInt(10), CategoryID: &cat.ID, InitialStock: 4,
	}, &p))
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, cat.ID, *p.CategoryID)

	missing := int64(404)
	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, api.call(t, http.MethodPost, "/api/products", pkgjwt.RoleStocker, dto.CreateProductRequest{
		SKU: "BEB-2", Name: "Jugo", CategoryID: &missing,
	}, &errResp))
	assert.Equal(t, "CATEGORY_NOT_FOUND", errResp.Code)

	var detail dto.CategoryResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/categories/"+itoa(cat.ID), pkgjwt.RoleCashier, nil, &detail))
	require.NotNil(t, detail.ProductCount)
	assert.Equal(t, 1, *detail.ProductCount)

	var cats []dto.CategoryResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/categories?with_count=true", pkgjwt.RoleCashier, nil, &cats))
	require.Len(t, cats, 1)
	require.NotNil(t, cats[0].ProductCount)

	var byCat dto.ProductListResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/products?category_id="+itoa(cat.ID), pkgjwt.RoleCashier, nil, &byCat))
	assert.Len(t, byCat.Items, 1)

	catPath := "/api/categories/" + itoa(cat.ID)
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodDelete, catPath, pkgjwt.RoleAdmin, nil, &errResp))
	assert.Equal(t, "IN_USE", errResp.Code)

	productPath := "/api/products/" + itoa(p.ID)
	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodDelete, productPath, pkgjwt.RoleCashier, nil, nil))
	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodDelete, productPath+"?force=true", pkgjwt.RoleStocker, nil, nil))
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodDelete, productPath+"?force=true", pkgjwt.RoleAdmin, nil, &errResp),
		"el stock inicial dejó un movimiento en el kardex")

	require.Equal(t, http.StatusNoContent, api.call(t, http.MethodDelete, productPath, pkgjwt.RoleStocker, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.call(t, http.MethodGet, productPath, pkgjwt.RoleCashier, nil, nil))
	status := api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 1}}, PaymentMethod: "debit",
	}, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errResp.Code)

	var movs dto.StockMovementListResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/inventory/movements?product_id="+itoa(p.ID), pkgjwt.RoleAdmin, nil, &movs))
	assert.Len(t, movs.Items, 1, "el kardex conserva el historial")

	// la baja lógica sigue contando para la restricción de la categoría
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodDelete, catPath, pkgjwt.RoleAdmin, nil, nil))

	fresh := api.createProduct(t, "SIN-MOV", 0, 0)
	assert.Equal(t, http.StatusNoContent, api.call(t, http.MethodDelete, "/api/products/"+itoa(fresh.ID)+"?force=true", pkgjwt.RoleAdmin, nil, nil))
}

func TestAPI_CantidadesFueraDeRango(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-Q", 5, 0)

	status := api.call(t, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleStocker, dto.CreateStockAdjustmentRequest{
		Reason: "correction",
		Items:  []dto.StockAdjustmentItemRequest{{ProductID: p.ID, Delta: 1 << 40}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = api.call(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 1_000_001}},
		PaymentMethod: "debit",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var prod dto.ProductResponse
	api.call(t, http.MethodGet, "/api/products/"+itoa(p.ID), pkgjwt.RoleAdmin, nil, &prod)
	assert.Equal(t, 5, prod.StockQty)
}

func TestAPI_AjusteYKardex(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct(t, "SKU-A", 5, 3)

	var adj dto.StockAdjustmentResponse
	status := api.call(t, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleStocker, dto.CreateStockAdjustmentRequest{
		Reason: "damaged",
		Items:  []dto.StockAdjustmentItemRequest{{ProductID: p.ID, Delta: -3}},
	}, &adj)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, adj.Movements, 1)
	assert.Equal(t, 2, adj.Movements[0].StockAfter)

	var errResp dto.ErrorResponse
	status = api.call(t, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleStocker, dto.CreateStockAdjustmentRequest{
		Reason: "lost",
		Items:  []dto.StockAdjustmentItemRequest{{ProductID: p.ID, Delta: -10}},
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)

	var movs dto.StockMovementListResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/inventory/movements?product_id="+itoa(p.ID)+"&order=asc", pkgjwt.RoleAdmin, nil, &movs))
	require.Len(t, movs.Items, 2)
	assert.Equal(t, "adjustment", movs.Items[0].Type)
	assert.Equal(t, 5, movs.Items[0].StockAfter)
	assert.Equal(t, 2, movs.Items[1].StockAfter)
	assert.Equal(t, 2, movs.Page.Total)

	assert.Equal(t, http.StatusBadRequest, api.call(t, http.MethodGet, "/api/inventory/movements?type=robo", pkgjwt.RoleAdmin, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.call(t, http.MethodGet, "/api/inventory/movements?from=ayer", pkgjwt.RoleAdmin, nil, nil))

	var low []dto.LowStockItemDTO
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/inventory/low-stock", pkgjwt.RoleAdmin, nil, &low))
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].ProductID)
	assert.Equal(t, 3, low[0].SuggestedOrderQty)
}

func TestAPI_SinToken(t *testing.T) {
	api := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
