package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/inventory"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// InventoryHandler ajustes de stock, kardex, conciliación y stock bajo (protegido).
type InventoryHandler struct {
	adjustments   *inventory.AdjustmentUseCase
	ledger        *inventory.LedgerUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	adjustments *inventory.AdjustmentUseCase,
	ledger *inventory.LedgerUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{adjustments: adjustments, ledger: ledger, replenishment: replenishment, log: log}
}

// CreateAdjustment godoc
// @Summary      Registrar ajuste de stock (toma física)
// @Description  Todas las líneas se aplican en una sola transacción; si alguna deja stock negativo no se aplica ninguna.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockAdjustmentRequest  true  "reason, notes, items (product_id, delta)"
// @Success      201   {object}  dto.StockAdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) CreateAdjustment(c *fiber.Ctx) error {
	var in dto.CreateStockAdjustmentRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.adjustments.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetAdjustment godoc
// @Summary      Obtener ajuste con sus movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del ajuste"
// @Success      200  {object}  dto.StockAdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments/{id} [get]
func (h *InventoryHandler) GetAdjustment(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	out, err := h.adjustments.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Kardex (historial de movimientos)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int     false  "Producto"
// @Param        type        query  string  false  "purchase | sale | adjustment | sale_cancel"
// @Param        from        query  string  false  "Desde"
// @Param        to          query  string  false  "Hasta"
// @Param        order       query  string  false  "asc | desc"  default(desc)
// @Success      200  {object}  dto.StockMovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	limit, offset := pagination(c)
	out, err := h.ledger.ListMovements(c.UserContext(), repository.MovementFilter{
		ProductID: int64(c.QueryInt("product_id", 0)),
		Type:      entity.MovementType(c.Query("type")),
		From:      from,
		To:        to,
		Ascending: c.Query("order") == "asc",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar kardex contra stock
// @Description  Reproduce los movimientos del producto desde 0 y compara con stock_qty.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  inventory.ReconciliationReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	report, err := h.ledger.Reconcile(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(report)
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Description  Productos activos con stock_qty <= min_stock y la cantidad sugerida de reposición.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LowStockItemDTO
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	out, err := h.replenishment.LowStock(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
