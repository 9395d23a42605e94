package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los errores tipados de abajo envuelven a estos centinelas
// para que los llamadores usen errors.Is / errors.As.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrNegativeStock          = errors.New("invariante violada: stock negativo")
	ErrAlreadyReceived        = errors.New("la orden de compra ya fue recibida")
	ErrCannotReceiveCancelled = errors.New("no se puede recibir una orden de compra cancelada")
	ErrAlreadyCancelled       = errors.New("la venta ya está cancelada")
	ErrInsufficientPayment    = errors.New("pago insuficiente")
	ErrInvalidTransition      = errors.New("transición de estado no permitida")
	ErrSupplierNotFound       = errors.New("proveedor no encontrado")
	ErrCategoryNotFound       = errors.New("categoría no encontrada")
	// ErrInUse el recurso tiene registros que lo referencian y no se puede eliminar.
	ErrInUse = errors.New("recurso en uso")
	// ErrLockTimeout es transitorio: el llamador debe reintentar la operación completa.
	ErrLockTimeout = errors.New("tiempo de espera de bloqueo agotado")
)

// InsufficientStockError rechazo de negocio: la salida solicitada supera el stock disponible.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NegativeStockError indica un defecto de lógica: el stock resultante quedaría negativo
// pese a la validación previa. No es un rechazo de negocio normal.
type NegativeStockError struct {
	ProductID      int64
	CurrentQty     int
	AttemptedDelta int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock negativo para producto %d: actual %d, cambio %d, resultado %d",
		e.ProductID, e.CurrentQty, e.AttemptedDelta, e.CurrentQty+e.AttemptedDelta)
}

func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }

// ProductNotFoundError aborta la operación compuesta completa.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %d no encontrado", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InsufficientPaymentError el efectivo entregado no cubre el total de la venta.
type InsufficientPaymentError struct {
	CashGiven decimal.Decimal
	Total     decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("efectivo entregado (%s) menor que el total (%s)", e.CashGiven.StringFixed(2), e.Total.StringFixed(2))
}

func (e *InsufficientPaymentError) Unwrap() error { return ErrInsufficientPayment }
