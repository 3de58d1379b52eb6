package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/kardex-core/internal/application/dto"
	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del libro de movimientos y stock.
type LedgerHandler struct {
	uc *ledger.RecordMovementUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.RecordMovementUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Registra una entrada del libro (IN/OUT/ADJUST) o dos (TRANSFER)
//
//	y actualiza stock y costo promedio de forma atómica. Si se envía
//	document_type + document_number y la referencia ya existe, responde
//	200 con las entradas originales (idempotente).
//
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "item_id, location_id (o from/to para TRANSFER), type, quantity, reason, unit_cost (entradas)"
// @Success      201   {object}  dto.RecordMovementResponse
// @Success      200   {object}  dto.RecordMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *LedgerHandler) RecordMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	result, err := h.uc.Record(c.Context(), ledger.MovementInput{
		ItemID:         in.ItemID,
		LocationID:     in.LocationID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Type:           in.Type,
		Direction:      in.Direction,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		UnitCost:       in.UnitCost,
		ActorID:        userID,
		PeriodID:       in.PeriodID,
		DocumentType:   in.DocumentType,
		DocumentNumber: in.DocumentNumber,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	status := fiber.StatusCreated
	if result.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.RecordMovementResponse{
		MovementIDs:  result.MovementIDs,
		Deduplicated: result.Deduplicated,
	})
}

// GetStock godoc
// @Summary      Consultar stock de un artículo en una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id      path  string  true  "ID del artículo"
// @Param        location_id  path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{item_id}/{location_id} [get]
func (h *LedgerHandler) GetStock(c *fiber.Ctx) error {
	s, err := h.uc.GetStock(c.Context(), c.Params("item_id"), c.Params("location_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// ListMovementsByItem godoc
// @Summary      Historial de movimientos de un artículo (kardex)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        item_id  path   string  true   "ID del artículo"
// @Param        from     query  string  false  "Fecha inicial (RFC3339)"
// @Param        to       query  string  false  "Fecha final (RFC3339)"
// @Param        limit    query  int     false  "Tamaño de página (default 20)"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements/item/{item_id} [get]
func (h *LedgerHandler) ListMovementsByItem(c *fiber.Ctx) error {
	from, to, page, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas inválidas: usar RFC3339"})
	}
	movements, err := h.uc.ListByItem(c.Context(), c.Params("item_id"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toMovementResponses(movements))
}

// ListMovementsByLocation godoc
// @Summary      Historial de movimientos de una ubicación
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        location_id  path   string  true   "ID de la ubicación"
// @Param        from         query  string  false  "Fecha inicial (RFC3339)"
// @Param        to           query  string  false  "Fecha final (RFC3339)"
// @Param        limit        query  int     false  "Tamaño de página (default 20)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements/location/{location_id} [get]
func (h *LedgerHandler) ListMovementsByLocation(c *fiber.Ctx) error {
	from, to, page, err := parseListQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fechas inválidas: usar RFC3339"})
	}
	movements, err := h.uc.ListByLocation(c.Context(), c.Params("location_id"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toMovementResponses(movements))
}

func parseListQuery(c *fiber.Ctx) (from, to *time.Time, page dto.PageRequest, err error) {
	if s := c.Query("from"); s != "" {
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return nil, nil, page, perr
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return nil, nil, page, perr
		}
		to = &t
	}
	page.Limit = c.QueryInt("limit")
	page.Offset = c.QueryInt("offset")
	page.DefaultPage()
	return from, to, page, nil
}

func toStockResponse(s *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		ItemID:       s.ItemID,
		LocationID:   s.LocationID,
		Quantity:     s.Quantity,
		MinStock:     s.MinStock,
		ReorderPoint: s.ReorderPoint,
	}
}

func toMovementResponses(movements []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.MovementResponse{
			ID:             m.ID,
			ItemID:         m.ItemID,
			LocationID:     m.LocationID,
			Type:           m.Type,
			Direction:      m.Direction,
			Reason:         m.Reason,
			Quantity:       m.Quantity,
			CostAtMoment:   m.CostAtMoment,
			TotalValue:     m.TotalValue,
			PeriodID:       m.PeriodID,
			DocumentType:   m.DocumentType,
			DocumentNumber: m.DocumentNumber,
			CreatedBy:      m.CreatedBy,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}
