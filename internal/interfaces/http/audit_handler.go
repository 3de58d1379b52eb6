package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/kardex-core/internal/application/audit"
	"github.com/tu-usuario/kardex-core/internal/application/dto"
	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// AuditHandler maneja las peticiones HTTP de conteos físicos.
type AuditHandler struct {
	uc *audit.ReconcilerUseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.ReconcilerUseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// Start godoc
// @Summary      Iniciar un conteo físico
// @Description  Toma una foto del stock actual de la ubicación como cantidades
//
//	esperadas y abre el conteo.
//
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartAuditRequest  true  "location_id"
// @Success      201   {object}  dto.AuditResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/audits [post]
func (h *AuditHandler) Start(c *fiber.Ctx) error {
	var in dto.StartAuditRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	a, err := h.uc.StartAudit(c.Context(), in.LocationID, GetUserID(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAuditResponse(a, nil))
}

// Get godoc
// @Summary      Consultar un conteo físico con sus líneas
// @Tags         audits
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.AuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audits/{id} [get]
func (h *AuditHandler) Get(c *fiber.Ctx) error {
	a, lines, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toAuditResponse(a, lines))
}

// UpdateCount godoc
// @Summary      Registrar la cantidad contada de un artículo
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del conteo"
// @Param        body  body  dto.UpdateCountRequest  true  "item_id, counted_qty, notes"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/audits/{id}/counts [put]
func (h *AuditHandler) UpdateCount(c *fiber.Ctx) error {
	var in dto.UpdateCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.UpdateCount(c.Context(), c.Params("id"), in.ItemID, in.CountedQty, in.Notes); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "conteo registrado"})
}

// SubmitForReview godoc
// @Summary      Pasar el conteo a revisión
// @Description  Congela las líneas del conteo antes de aplicar los ajustes.
// @Tags         audits
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audits/{id}/review [post]
func (h *AuditHandler) SubmitForReview(c *fiber.Ctx) error {
	if err := h.uc.SubmitForReview(c.Context(), c.Params("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "conteo en revisión"})
}

// Finalize godoc
// @Summary      Finalizar el conteo y aplicar ajustes
// @Description  Genera un ADJUST por cada línea con diferencia y cierra el
//
//	conteo. Si alguna línea falla, el conteo queda abierto y la respuesta
//	es 207 con los contadores de aplicadas y fallidas; reintentar es
//	seguro porque los ajustes ya aplicados se de-duplican por referencia.
//
// @Tags         audits
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del conteo"
// @Success      200  {object}  dto.FinalizeAuditResponse
// @Success      207  {object}  dto.FinalizeAuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audits/{id}/finalize [post]
func (h *AuditHandler) Finalize(c *fiber.Ctx) error {
	result, err := h.uc.Finalize(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		var partial *domain.PartialAuditFailureError
		if errors.As(err, &partial) {
			return c.Status(fiber.StatusMultiStatus).JSON(dto.FinalizeAuditResponse{
				AppliedCount: partial.Applied,
				FailedCount:  len(partial.Failed),
			})
		}
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FinalizeAuditResponse{AppliedCount: result.Applied, FailedCount: result.Failed})
}

func toAuditResponse(a *entity.Audit, lines []*entity.AuditLine) dto.AuditResponse {
	resp := dto.AuditResponse{
		ID:         a.ID,
		LocationID: a.LocationID,
		Status:     a.Status,
		StartedAt:  a.StartedAt,
		ClosedAt:   a.ClosedAt,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.AuditLineResponse{
			ItemID:      l.ItemID,
			ExpectedQty: l.ExpectedQty,
			CountedQty:  l.CountedQty,
			Difference:  l.Difference,
			Notes:       l.Notes,
			MovementID:  l.MovementID,
		})
	}
	return resp
}
