package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

// writeError traduce errores de dominio a dto.ErrorResponse con su status HTTP.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", "error interno"

	var (
		stockErr   *domain.InsufficientStockError
		productErr *domain.ProductNotFoundError
		paymentErr *domain.InsufficientPaymentError
	)
	switch {
	case errors.As(err, &stockErr):
		status, code, msg = fiber.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error()
	case errors.As(err, &productErr):
		status, code, msg = fiber.StatusNotFound, "PRODUCT_NOT_FOUND", productErr.Error()
	case errors.As(err, &paymentErr):
		status, code, msg = fiber.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT", paymentErr.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"
	case errors.Is(err, domain.ErrDuplicate):
		status, code, msg = fiber.StatusConflict, "DUPLICATE", "el SKU ya existe"
	case errors.Is(err, domain.ErrSupplierNotFound):
		status, code, msg = fiber.StatusUnprocessableEntity, "SUPPLIER_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrCategoryNotFound):
		status, code, msg = fiber.StatusUnprocessableEntity, "CATEGORY_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInUse):
		status, code, msg = fiber.StatusConflict, "IN_USE", err.Error()
	case errors.Is(err, domain.ErrAlreadyCancelled):
		status, code, msg = fiber.StatusConflict, "ALREADY_CANCELLED", err.Error()
	case errors.Is(err, domain.ErrAlreadyReceived):
		status, code, msg = fiber.StatusConflict, "ALREADY_RECEIVED", err.Error()
	case errors.Is(err, domain.ErrCannotReceiveCancelled):
		status, code, msg = fiber.StatusConflict, "CANNOT_RECEIVE_CANCELLED", err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code, msg = fiber.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrLockTimeout):
		status, code, msg = fiber.StatusServiceUnavailable, "LOCK_TIMEOUT", "recurso ocupado, reintente la operación"
		c.Set(fiber.HeaderRetryAfter, "1")
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, "FORBIDDEN", err.Error()
	}

	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
