// Package audit implementa el reconciliador de conteos físicos: foto del
// stock esperado, captura de conteos y ajustes correctivos vía el
// registrador de movimientos (nunca muta stock directamente).
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// MovementRecorder es el puerto hacia el registrador de movimientos: los
// ajustes del conteo entran al libro por la misma puerta que todo lo demás.
type MovementRecorder interface {
	Record(ctx context.Context, input ledger.MovementInput) (*ledger.MovementResult, error)
}

// ReconcilerUseCase casos de uso de conteo físico.
type ReconcilerUseCase struct {
	auditRepo    repository.AuditRepository
	stockRepo    repository.StockRepository
	locationRepo repository.LocationRepository
	recorder     MovementRecorder
	log          *logger.Logger
}

// NewReconcilerUseCase construye el reconciliador.
func NewReconcilerUseCase(
	auditRepo repository.AuditRepository,
	stockRepo repository.StockRepository,
	locationRepo repository.LocationRepository,
	recorder MovementRecorder,
	log *logger.Logger,
) *ReconcilerUseCase {
	return &ReconcilerUseCase{
		auditRepo:    auditRepo,
		stockRepo:    stockRepo,
		locationRepo: locationRepo,
		recorder:     recorder,
		log:          log,
	}
}

// StartAudit crea un conteo físico sobre una ubicación con una línea por
// artículo presente (foto de Stock.Quantity como cantidad esperada).
// La foto es puntual: no bloquea las filas de stock, así que movimientos
// tardíos durante la ventana de conteo pueden desviarla del stock vivo.
func (uc *ReconcilerUseCase) StartAudit(ctx context.Context, locationID, actorID string) (*entity.Audit, error) {
	if locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	loc, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}

	stocks, err := uc.stockRepo.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	a := &entity.Audit{
		ID:         uuid.New().String(),
		LocationID: locationID,
		Status:     entity.AuditStatusOpen,
		StartedAt:  now,
		CreatedBy:  actorID,
	}
	lines := make([]*entity.AuditLine, 0, len(stocks))
	for _, s := range stocks {
		lines = append(lines, &entity.AuditLine{
			AuditID:     a.ID,
			ItemID:      s.ItemID,
			ExpectedQty: s.Quantity,
			UpdatedAt:   now,
		})
	}
	if err := uc.auditRepo.CreateWithLines(ctx, a, lines); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("audit_id", a.ID).
		Str("location_id", locationID).
		Int("lines", len(lines)).
		Msg("conteo físico iniciado")
	return a, nil
}

// UpdateCount registra la cantidad contada de un artículo. Solo permitido
// mientras el conteo está abierto; recalcula la diferencia contra la foto.
func (uc *ReconcilerUseCase) UpdateCount(ctx context.Context, auditID, itemID string, counted decimal.Decimal, notes string) error {
	if counted.IsNegative() {
		return domain.ErrInvalidInput
	}
	a, err := uc.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrNotFound
	}
	if !a.Editable() {
		return domain.ErrAuditNotOpen
	}
	line, err := uc.auditRepo.GetLine(ctx, auditID, itemID)
	if err != nil {
		return err
	}
	if line == nil {
		return domain.ErrNotFound
	}
	// Tras una finalización parcial el conteo sigue abierto, pero las
	// líneas cuyo ajuste ya entró al libro no admiten correcciones: la
	// referencia de documento del reintento las de-duplicaría y la
	// corrección se perdería en silencio.
	if line.Adjusted() {
		return domain.ErrAuditLineAdjusted
	}
	line.CountedQty = &counted
	line.Difference = counted.Sub(line.ExpectedQty)
	line.Notes = notes
	line.UpdatedAt = time.Now()
	return uc.auditRepo.UpdateLine(ctx, line)
}

// SubmitForReview pasa el conteo de open a reviewing: los conteos quedan
// congelados a la espera de aprobación antes de ajustar stock.
func (uc *ReconcilerUseCase) SubmitForReview(ctx context.Context, auditID string) error {
	a, err := uc.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrNotFound
	}
	if a.Status != entity.AuditStatusOpen {
		return domain.ErrAuditNotOpen
	}
	a.Status = entity.AuditStatusReviewing
	return uc.auditRepo.UpdateStatus(ctx, a)
}

// FinalizeResult resultado de la finalización de un conteo.
type FinalizeResult struct {
	Applied int
	Failed  int
}

// Finalize aplica un ajuste por cada línea contada con diferencia distinta
// de cero (razón physical_audit, magnitud |diferencia|, dirección según el
// signo) y cierra el conteo. Cada línea es una transacción independiente;
// si alguna falla el conteo NO se cierra y se devuelve
// PartialAuditFailureError con el detalle por línea para reintentar. Las
// líneas ya aplicadas quedan marcadas con su movimiento y el reintento las
// salta; la referencia de documento audit/<id> respalda además la carrera
// en el registrador.
func (uc *ReconcilerUseCase) Finalize(ctx context.Context, auditID, actorID string) (*FinalizeResult, error) {
	a, err := uc.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	if !a.Finalizable() {
		return nil, domain.ErrAuditNotOpen
	}

	lines, err := uc.auditRepo.ListLines(ctx, auditID)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{}
	var failures []domain.AuditLineFailure
	for _, line := range lines {
		if !line.Counted() || line.Difference.IsZero() {
			continue
		}
		if line.Adjusted() {
			// Aplicada en un intento anterior; no vuelve al registrador.
			result.Applied++
			continue
		}
		direction := entity.DirectionIn
		if line.Difference.IsNegative() {
			direction = entity.DirectionOut
		}
		res, err := uc.recorder.Record(ctx, ledger.MovementInput{
			ItemID:         line.ItemID,
			LocationID:     a.LocationID,
			Type:           entity.MovementTypeADJUST,
			Direction:      direction,
			Quantity:       line.Difference.Abs(),
			Reason:         entity.ReasonPhysicalAudit,
			ActorID:        actorID,
			DocumentType:   "audit",
			DocumentNumber: auditID,
		})
		if err != nil {
			uc.log.Warn().
				Err(err).
				Str("audit_id", auditID).
				Str("item_id", line.ItemID).
				Msg("ajuste de conteo fallido")
			failures = append(failures, domain.AuditLineFailure{ItemID: line.ItemID, Err: err})
			result.Failed++
			continue
		}
		// Marca la línea con su movimiento: congela el conteo aplicado.
		line.MovementID = res.MovementIDs[0]
		line.UpdatedAt = time.Now()
		if err := uc.auditRepo.UpdateLine(ctx, line); err != nil {
			failures = append(failures, domain.AuditLineFailure{ItemID: line.ItemID, Err: err})
			result.Failed++
			continue
		}
		result.Applied++
	}

	if len(failures) > 0 {
		// El conteo queda abierto para reintentar las líneas pendientes.
		return result, &domain.PartialAuditFailureError{
			AuditID: auditID,
			Applied: result.Applied,
			Failed:  failures,
		}
	}

	now := time.Now()
	a.Status = entity.AuditStatusClosed
	a.ClosedAt = &now
	if err := uc.auditRepo.UpdateStatus(ctx, a); err != nil {
		return result, err
	}
	uc.log.Info().
		Str("audit_id", auditID).
		Int("applied", result.Applied).
		Msg("conteo físico cerrado")
	return result, nil
}

// Get devuelve un conteo y sus líneas.
func (uc *ReconcilerUseCase) Get(ctx context.Context, auditID string) (*entity.Audit, []*entity.AuditLine, error) {
	a, err := uc.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, domain.ErrNotFound
	}
	lines, err := uc.auditRepo.ListLines(ctx, auditID)
	if err != nil {
		return nil, nil, err
	}
	return a, lines, nil
}
