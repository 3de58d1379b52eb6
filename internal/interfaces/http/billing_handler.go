package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/kardex-core/internal/application/billing"
	"github.com/tu-usuario/kardex-core/internal/application/dto"
)

// BillingHandler recibe webhooks del colaborador de facturación.
type BillingHandler struct {
	consumer *billing.InvoiceConsumer
}

// NewBillingHandler construye el handler.
func NewBillingHandler(consumer *billing.InvoiceConsumer) *BillingHandler {
	return &BillingHandler{consumer: consumer}
}

// InvoiceCreated godoc
// @Summary      Webhook de factura emitida
// @Description  Descuenta stock por venta, una salida por línea de factura.
//
//	La reentrega del mismo evento es segura: las líneas ya aplicadas se
//	de-duplican por la referencia invoice/<invoice_id>.
//
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  billing.InvoiceCreatedEvent  true  "invoice_id + items"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/billing/invoice-created [post]
func (h *BillingHandler) InvoiceCreated(c *fiber.Ctx) error {
	var ev billing.InvoiceCreatedEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	results, err := h.consumer.HandleInvoiceCreated(c.Context(), ev)
	if err != nil {
		return writeDomainError(c, err)
	}

	type lineDTO struct {
		ItemID       string `json:"item_id"`
		MovementID   string `json:"movement_id,omitempty"`
		Deduplicated bool   `json:"deduplicated,omitempty"`
		Error        string `json:"error,omitempty"`
	}
	lines := make([]lineDTO, 0, len(results))
	failed := 0
	for _, r := range results {
		l := lineDTO{ItemID: r.ItemID, MovementID: r.MovementID, Deduplicated: r.Deduplicated}
		if r.Err != nil {
			l.Error = r.Err.Error()
			failed++
		}
		lines = append(lines, l)
	}
	return c.JSON(fiber.Map{
		"invoice_id": ev.InvoiceID,
		"failed":     failed,
		"lines":      lines,
	})
}
