package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/application/purchasing"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// PurchaseOrderHandler órdenes de compra a proveedor.
type PurchaseOrderHandler struct {
	uc  *purchasing.PurchaseOrderUseCase
	log *logger.Logger
}

func NewPurchaseOrderHandler(uc *purchasing.PurchaseOrderUseCase, log *logger.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Proveedor y líneas"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "pending | ordered | received | cancelled"
// @Param        supplier_id  query  int     false  "Proveedor"
// @Param        from         query  string  false  "Desde"
// @Param        to           query  string  false  "Hasta"
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	limit, offset := pagination(c)
	out, err := h.uc.List(c.UserContext(), repository.PurchaseOrderFilter{
		Status:     entity.PurchaseOrderStatus(c.Query("status")),
		SupplierID: int64(c.QueryInt("supplier_id", 0)),
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// MarkOrdered godoc
// @Summary      Marcar como enviada al proveedor
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/order [post]
func (h *PurchaseOrderHandler) MarkOrdered(c *fiber.Ctx) error {
	return h.transition(c, h.uc.MarkOrdered)
}

// Receive godoc
// @Summary      Recibir mercancía
// @Description  Suma stock por línea y actualiza cost_price al último costo.
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Receive)
}

// Cancel godoc
// @Summary      Cancelar orden pendiente
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Cancel)
}

func (h *PurchaseOrderHandler) transition(c *fiber.Ctx, op func(ctx context.Context, id, actorID int64) (*dto.PurchaseOrderResponse, error)) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "MISSING_ID", "id inválido")
	}
	out, err := op(c.UserContext(), id, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
