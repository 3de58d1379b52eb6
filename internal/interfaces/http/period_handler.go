package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/kardex-core/internal/application/dto"
	"github.com/tu-usuario/kardex-core/internal/application/period"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// PeriodHandler maneja las peticiones HTTP de períodos fiscales.
type PeriodHandler struct {
	uc *period.GuardUseCase
}

// NewPeriodHandler construye el handler.
func NewPeriodHandler(uc *period.GuardUseCase) *PeriodHandler {
	return &PeriodHandler{uc: uc}
}

// List godoc
// @Summary      Listar períodos fiscales
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {array}  dto.PeriodResponse
// @Router       /api/periods [get]
func (h *PeriodHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	page.DefaultPage()
	periods, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodResponse(p))
	}
	return c.JSON(out)
}

// Current godoc
// @Summary      Período fiscal vigente
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PeriodResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/periods/current [get]
func (h *PeriodHandler) Current(c *fiber.Ctx) error {
	p, err := h.uc.Current(c.Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toPeriodResponse(p))
}

// Editable godoc
// @Summary      Consultar si un período acepta movimientos
// @Description  Un período es editable si está abierto y dentro de la
//
//	ventana de edición configurada respecto al vigente.
//
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del período (YYYY-MM)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/periods/{id}/editable [get]
func (h *PeriodHandler) Editable(c *fiber.Ctx) error {
	id := c.Params("id")
	editable, err := h.uc.IsEditable(c.Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"period_id": id, "editable": editable})
}

// Close godoc
// @Summary      Cerrar un período fiscal
// @Description  Marca el período como cerrado. Si era el vigente, crea y
//
//	activa el siguiente en la misma transacción.
//
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del período (YYYY-MM)"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/periods/{id}/close [post]
func (h *PeriodHandler) Close(c *fiber.Ctx) error {
	if err := h.uc.ClosePeriod(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "período cerrado"})
}

// Lock godoc
// @Summary      Bloquear un período fiscal cerrado
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del período (YYYY-MM)"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/periods/{id}/lock [post]
func (h *PeriodHandler) Lock(c *fiber.Ctx) error {
	if err := h.uc.LockPeriod(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "período bloqueado"})
}

// GetConfig godoc
// @Summary      Configuración fiscal vigente
// @Tags         periods
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.FiscalConfig
// @Router       /api/periods/config [get]
func (h *PeriodHandler) GetConfig(c *fiber.Ctx) error {
	cfg, err := h.uc.GetConfig(c.Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(cfg)
}

// UpdateConfig godoc
// @Summary      Actualizar la configuración fiscal
// @Tags         periods
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FiscalConfigRequest  true  "lock_after_periods, managed_by, allow_negative_stock"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/periods/config [put]
func (h *PeriodHandler) UpdateConfig(c *fiber.Ctx) error {
	var in dto.FiscalConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.UpdateConfig(c.Context(), &entity.FiscalConfig{
		LockAfterPeriods:   in.LockAfterPeriods,
		ManagedBy:          in.ManagedBy,
		AllowNegativeStock: in.AllowNegativeStock,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "configuración actualizada"})
}

func toPeriodResponse(p *entity.FiscalPeriod) dto.PeriodResponse {
	return dto.PeriodResponse{
		ID:        p.ID,
		Year:      p.Year,
		Month:     p.Month,
		Status:    p.Status,
		IsCurrent: p.IsCurrent,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		ClosedBy:  p.ClosedBy,
		ClosedAt:  p.ClosedAt,
	}
}
