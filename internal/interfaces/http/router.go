package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario-api/internal/application/catalog"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/application/purchasing"
	"github.com/jhoicas/pos-inventario-api/internal/application/sales"
	"github.com/jhoicas/pos-inventario-api/pkg/jwt"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC       *catalog.ProductUseCase
	CategoryUC      *catalog.CategoryUseCase
	SupplierUC      *purchasing.SupplierUseCase
	SaleUC          *sales.SaleUseCase
	PurchaseOrderUC *purchasing.PurchaseOrderUseCase
	AdjustmentUC    *inventory.AdjustmentUseCase
	LedgerUC        *inventory.LedgerUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	JWTSecret       string
	Logger          *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger.Named("http")
	api := app.Group("/api", RequestID(), AccessLog(deps.Logger), AuthMiddleware(deps.JWTSecret), RequireRole())

	catalogRoles := RequireRole(jwt.RoleAdmin, jwt.RoleStocker)
	cashRoles := RequireRole(jwt.RoleAdmin, jwt.RoleCashier)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Post("/", catalogRoles, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", catalogRoles, productHandler.Update)
	products.Delete("/:id", catalogRoles, productHandler.Delete)

	// Categories
	categories := api.Group("/categories")
	categoryHandler := NewCategoryHandler(deps.CategoryUC, log)
	categories.Post("/", catalogRoles, categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Put("/:id", catalogRoles, categoryHandler.Update)
	categories.Delete("/:id", adminOnly, categoryHandler.Delete)

	// Suppliers
	suppliers := api.Group("/suppliers", catalogRoles)
	supplierHandler := NewSupplierHandler(deps.SupplierUC, log)
	suppliers.Post("/", supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id", supplierHandler.Update)
	suppliers.Delete("/:id", adminOnly, supplierHandler.Delete)

	// Sales
	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC, log)
	salesGroup.Post("/", cashRoles, saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/cancel", adminOnly, saleHandler.Cancel)

	// Purchase orders
	pos := api.Group("/purchase-orders", catalogRoles)
	poHandler := NewPurchaseOrderHandler(deps.PurchaseOrderUC, log)
	pos.Post("/", poHandler.Create)
	pos.Get("/", poHandler.List)
	pos.Get("/:id", poHandler.GetByID)
	pos.Post("/:id/order", poHandler.MarkOrdered)
	pos.Post("/:id/receive", poHandler.Receive)
	pos.Post("/:id/cancel", poHandler.Cancel)

	// Inventory
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.AdjustmentUC, deps.LedgerUC, deps.Replenishment, log)
	inv.Post("/adjustments", catalogRoles, inventoryHandler.CreateAdjustment)
	inv.Get("/adjustments/:id", inventoryHandler.GetAdjustment)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/products/:id/reconcile", inventoryHandler.Reconcile)
	inv.Get("/low-stock", inventoryHandler.LowStock)
}
