package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). El núcleo nunca lanza
// panics por condiciones de negocio: siempre retorna uno de estos errores
// y la capa HTTP los traduce a códigos de estado.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrInvalidQuantity        = errors.New("la cantidad debe ser mayor que cero")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrPeriodClosed           = errors.New("el período fiscal no acepta movimientos")
	ErrPeriodNotFound         = errors.New("período fiscal no encontrado")
	ErrPeriodNotOpen          = errors.New("el período fiscal no está abierto")
	ErrConcurrentModification = errors.New("conflicto de concurrencia, reintentos agotados")
	ErrAuditNotOpen           = errors.New("el conteo físico no está abierto")
	ErrAuditLineAdjusted      = errors.New("la línea ya tiene su ajuste aplicado al libro")
	ErrItemInactive           = errors.New("el artículo está desactivado")
)

// AuditLineFailure describe el fallo de una línea durante la finalización
// de un conteo físico.
type AuditLineFailure struct {
	ItemID string
	Err    error
}

// PartialAuditFailureError indica que la finalización de un conteo aplicó
// algunos ajustes pero otros fallaron. El conteo queda abierto y el caller
// puede reintentar: los ajustes ya aplicados son idempotentes por referencia
// de documento, así que un reintento no los duplica.
type PartialAuditFailureError struct {
	AuditID string
	Applied int
	Failed  []AuditLineFailure
}

func (e *PartialAuditFailureError) Error() string {
	return fmt.Sprintf("finalización parcial del conteo %s: %d ajustes aplicados, %d fallidos",
		e.AuditID, e.Applied, len(e.Failed))
}
