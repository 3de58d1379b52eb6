// Package ledger implementa el registrador de movimientos: el único
// escritor del libro de inventario y de la proyección de stock.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/costing"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// maxRetries acota los reintentos internos ante conflictos de
// serialización/deadlock antes de devolver ErrConcurrentModification.
const maxRetries = 3

// RecordMovementUseCase registra movimientos de inventario de forma
// transaccional (IN, OUT, ADJUST, TRANSFER) con bloqueo de fila
// (SELECT FOR UPDATE) y Commit/Rollback. Un movimiento confirmado
// actualiza stock, congela el costo y emite la notificación de cambio;
// uno fallido no deja rastro.
type RecordMovementUseCase struct {
	txRunner     TxRunner
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	configRepo   repository.FiscalConfigRepository
	periods      PeriodGuard
	notifier     Notifier
	log          *logger.Logger
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	configRepo repository.FiscalConfigRepository,
	periods PeriodGuard,
	notifier Notifier,
	log *logger.Logger,
) *RecordMovementUseCase {
	return &RecordMovementUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		configRepo:   configRepo,
		periods:      periods,
		notifier:     notifier,
		log:          log,
	}
}

// MovementInput entrada para registrar un movimiento.
// Para IN/OUT/ADJUST: ItemID, LocationID, Type, Quantity (magnitud > 0);
// UnitCost obligatorio en IN. Para ADJUST, Direction indica el signo de la
// corrección. Para TRANSFER: FromLocationID y ToLocationID.
// PeriodID vacío se resuelve al período vigente. DocumentType/DocumentNumber
// son la referencia externa opcional que de-duplica reentregas.
type MovementInput struct {
	ItemID         string
	LocationID     string
	FromLocationID string
	ToLocationID   string
	Type           string
	Direction      string // solo ADJUST: in | out
	Quantity       decimal.Decimal
	Reason         string
	UnitCost       *decimal.Decimal
	ActorID        string
	PeriodID       string
	DocumentType   string
	DocumentNumber string
}

// MovementResult resultado de un registro exitoso. TRANSFER produce dos
// entradas del libro (salida en origen, entrada en destino).
type MovementResult struct {
	MovementIDs []string
	// Deduplicated indica que la referencia de documento ya estaba
	// registrada y no se aplicó nada nuevo.
	Deduplicated bool
}

// Record valida el movimiento, resuelve período y costo, y aplica stock +
// entrada del libro como unidad atómica por llave (artículo, ubicación).
// Reintenta internamente ante conflictos de serialización.
func (uc *RecordMovementUseCase) Record(ctx context.Context, input MovementInput) (*MovementResult, error) {
	if err := uc.validate(&input); err != nil {
		return nil, err
	}

	// Resolver período: vacío = vigente; explícito = debe ser editable.
	if input.PeriodID == "" {
		current, err := uc.periods.CurrentID(ctx)
		if err != nil {
			return nil, err
		}
		input.PeriodID = current
	} else if err := uc.periods.CheckEditable(ctx, input.PeriodID); err != nil {
		return nil, err
	}

	// Artículo y ubicación deben existir (lectura fuera de la tx).
	item, err := uc.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if !item.Active {
		return nil, domain.ErrItemInactive
	}
	if err := uc.checkLocations(ctx, &input); err != nil {
		return nil, err
	}

	// De-duplicación por referencia de documento (camino rápido; la
	// constraint única cubre la carrera).
	if input.DocumentType != "" && input.DocumentNumber != "" {
		if prev, err := uc.findExisting(ctx, &input); err != nil {
			return nil, err
		} else if prev != nil {
			return prev, nil
		}
	}

	cfg, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	var result *MovementResult
	for attempt := 0; ; attempt++ {
		result, err = uc.apply(ctx, &input, cfg)
		if err == nil || !errors.Is(err, domain.ErrConcurrentModification) {
			break
		}
		if attempt+1 >= maxRetries {
			uc.log.Warn().
				Str("item_id", input.ItemID).
				Str("type", input.Type).
				Int("attempts", attempt+1).
				Msg("reintentos de serialización agotados")
			return nil, domain.ErrConcurrentModification
		}
	}
	if err != nil {
		// Carrera de de-duplicación: otro proceso registró la misma
		// referencia entre el chequeo y el commit.
		if errors.Is(err, domain.ErrDuplicate) && input.DocumentType != "" {
			if prev, ferr := uc.findExisting(ctx, &input); ferr == nil && prev != nil {
				return prev, nil
			}
		}
		return nil, err
	}
	return result, nil
}

// GetStock devuelve la proyección de stock de un artículo en una ubicación.
func (uc *RecordMovementUseCase) GetStock(ctx context.Context, itemID, locationID string) (*entity.Stock, error) {
	if itemID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.Get(ctx, itemID, locationID)
}

// ListByItem lista las entradas del libro de un artículo en un rango de fechas.
func (uc *RecordMovementUseCase) ListByItem(ctx context.Context, itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return uc.movementRepo.ListByItem(ctx, itemID, from, to, limit, offset)
}

// ListByLocation lista las entradas del libro de una ubicación en un rango de fechas.
func (uc *RecordMovementUseCase) ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return uc.movementRepo.ListByLocation(ctx, locationID, from, to, limit, offset)
}

func (uc *RecordMovementUseCase) validate(input *MovementInput) error {
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}
	switch input.Type {
	case entity.MovementTypeIN:
		if input.ItemID == "" || input.LocationID == "" {
			return domain.ErrInvalidInput
		}
		if input.UnitCost == nil || input.UnitCost.IsNegative() {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeOUT:
		if input.ItemID == "" || input.LocationID == "" {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeADJUST:
		if input.ItemID == "" || input.LocationID == "" {
			return domain.ErrInvalidInput
		}
		if input.Direction != entity.DirectionIn && input.Direction != entity.DirectionOut {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeTRANSFER:
		if input.ItemID == "" || input.FromLocationID == "" || input.ToLocationID == "" {
			return domain.ErrInvalidInput
		}
		if input.FromLocationID == input.ToLocationID {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	return nil
}

func (uc *RecordMovementUseCase) checkLocations(ctx context.Context, input *MovementInput) error {
	ids := []string{input.LocationID}
	if input.Type == entity.MovementTypeTRANSFER {
		ids = []string{input.FromLocationID, input.ToLocationID}
	}
	for _, id := range ids {
		loc, err := uc.locationRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

// findExisting busca movimientos previos con la misma referencia de
// documento. Para TRANSFER basta encontrar la salida en origen.
func (uc *RecordMovementUseCase) findExisting(ctx context.Context, input *MovementInput) (*MovementResult, error) {
	locationID, direction := input.LocationID, directionFor(input)
	if input.Type == entity.MovementTypeTRANSFER {
		locationID = input.FromLocationID
	}
	prev, err := uc.movementRepo.FindByDocument(ctx,
		input.DocumentType, input.DocumentNumber, input.ItemID, locationID, direction)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	result := &MovementResult{MovementIDs: []string{prev.ID}, Deduplicated: true}
	if input.Type == entity.MovementTypeTRANSFER {
		// Misma forma que un TRANSFER fresco: entrada en destino además
		// de la salida en origen (se escriben en la misma transacción).
		in, err := uc.movementRepo.FindByDocument(ctx,
			input.DocumentType, input.DocumentNumber, input.ItemID, input.ToLocationID, entity.DirectionIn)
		if err != nil {
			return nil, err
		}
		if in != nil {
			result.MovementIDs = append(result.MovementIDs, in.ID)
		}
	}
	return result, nil
}

func directionFor(input *MovementInput) string {
	switch input.Type {
	case entity.MovementTypeIN:
		return entity.DirectionIn
	case entity.MovementTypeOUT, entity.MovementTypeTRANSFER:
		return entity.DirectionOut
	default:
		return input.Direction
	}
}

// apply ejecuta una transacción completa del movimiento y, si el commit
// fue exitoso, publica las notificaciones de cambio de stock.
func (uc *RecordMovementUseCase) apply(ctx context.Context, input *MovementInput, cfg *entity.FiscalConfig) (*MovementResult, error) {
	now := time.Now()
	var recorded []*entity.Movement

	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error {
		recorded = recorded[:0]
		switch input.Type {
		case entity.MovementTypeIN:
			return uc.doIn(ctx, movRepo, stockRepo, itemRepo, input, now, &recorded)
		case entity.MovementTypeOUT:
			return uc.doOut(ctx, movRepo, stockRepo, itemRepo, input, cfg, now, &recorded)
		case entity.MovementTypeADJUST:
			return uc.doAdjust(ctx, movRepo, stockRepo, itemRepo, input, cfg, now, &recorded)
		case entity.MovementTypeTRANSFER:
			return uc.doTransfer(ctx, movRepo, stockRepo, itemRepo, input, cfg, now, &recorded)
		}
		return domain.ErrInvalidInput
	})
	if err != nil {
		return nil, err
	}

	result := &MovementResult{}
	for _, mov := range recorded {
		result.MovementIDs = append(result.MovementIDs, mov.ID)
		uc.notifier.PublishStockChanged(StockChangedEvent{
			MovementID:   mov.ID,
			ItemID:       mov.ItemID,
			LocationID:   mov.LocationID,
			Delta:        mov.SignedDelta(),
			MovementType: mov.Type,
			Reason:       mov.Reason,
		})
		uc.log.Info().
			Str("movement_id", mov.ID).
			Str("item_id", mov.ItemID).
			Str("location_id", mov.LocationID).
			Str("type", mov.Type).
			Str("direction", mov.Direction).
			Str("period_id", mov.PeriodID).
			Msg("movimiento registrado")
	}
	return result, nil
}

// doIn: bloquea fila de stock y de artículo, recalcula el promedio
// ponderado, suma stock y escribe la entrada del libro.
func (uc *RecordMovementUseCase) doIn(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	input *MovementInput,
	now time.Time,
	recorded *[]*entity.Movement,
) error {
	// El costo promedio es por artículo: se bloquea también la fila del
	// artículo para que dos entradas concurrentes en ubicaciones distintas
	// no se pisen el promedio.
	item, err := itemRepo.GetForUpdate(ctx, input.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	stock, err := stockRepo.GetForUpdate(ctx, input.ItemID, input.LocationID)
	if err != nil {
		return err
	}

	unitCost := *input.UnitCost
	newCost := costing.NewWeightedAverageCost(stock.Quantity, item.AvgCost, input.Quantity, unitCost)
	if err := itemRepo.UpdateAvgCost(ctx, input.ItemID, newCost); err != nil {
		return err
	}

	stock.Quantity = stock.Quantity.Add(input.Quantity)
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return err
	}

	return uc.appendMovement(ctx, movRepo, input, input.LocationID,
		entity.DirectionIn, unitCost, now, recorded)
}

// doOut: bloquea fila, verifica disponibilidad (salvo override de stock
// negativo), resta y escribe la entrada al costo promedio vigente — o al
// costo específico si el tipo de artículo lo admite.
func (uc *RecordMovementUseCase) doOut(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	input *MovementInput,
	cfg *entity.FiscalConfig,
	now time.Time,
	recorded *[]*entity.Movement,
) error {
	item, err := itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	stock, err := stockRepo.GetForUpdate(ctx, input.ItemID, input.LocationID)
	if err != nil {
		return err
	}
	if stock.Quantity.LessThan(input.Quantity) && !cfg.AllowNegativeStock {
		return domain.ErrInsufficientStock
	}

	stock.Quantity = stock.Quantity.Sub(input.Quantity)
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return err
	}

	unitCost := costing.OutboundUnitCost(item, input.UnitCost)
	return uc.appendMovement(ctx, movRepo, input, input.LocationID,
		entity.DirectionOut, unitCost, now, recorded)
}

// doAdjust: corrección con signo. Ambas direcciones se valoran al costo
// promedio vigente y nunca alteran el promedio (no hay costo de compra
// nuevo que promediar).
func (uc *RecordMovementUseCase) doAdjust(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	input *MovementInput,
	cfg *entity.FiscalConfig,
	now time.Time,
	recorded *[]*entity.Movement,
) error {
	item, err := itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	stock, err := stockRepo.GetForUpdate(ctx, input.ItemID, input.LocationID)
	if err != nil {
		return err
	}

	if input.Direction == entity.DirectionOut {
		if stock.Quantity.LessThan(input.Quantity) && !cfg.AllowNegativeStock {
			return domain.ErrInsufficientStock
		}
		stock.Quantity = stock.Quantity.Sub(input.Quantity)
	} else {
		stock.Quantity = stock.Quantity.Add(input.Quantity)
	}
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return err
	}

	return uc.appendMovement(ctx, movRepo, input, input.LocationID,
		input.Direction, item.AvgCost, now, recorded)
}

// doTransfer: bloquea ambas filas, resta en origen y suma en destino en la
// misma transacción; escribe dos entradas del libro al promedio vigente.
func (uc *RecordMovementUseCase) doTransfer(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	input *MovementInput,
	cfg *entity.FiscalConfig,
	now time.Time,
	recorded *[]*entity.Movement,
) error {
	item, err := itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	origin, err := stockRepo.GetForUpdate(ctx, input.ItemID, input.FromLocationID)
	if err != nil {
		return err
	}
	dest, err := stockRepo.GetForUpdate(ctx, input.ItemID, input.ToLocationID)
	if err != nil {
		return err
	}
	if origin.Quantity.LessThan(input.Quantity) && !cfg.AllowNegativeStock {
		return domain.ErrInsufficientStock
	}

	origin.Quantity = origin.Quantity.Sub(input.Quantity)
	dest.Quantity = dest.Quantity.Add(input.Quantity)
	origin.UpdatedAt = now
	dest.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, origin); err != nil {
		return err
	}
	if err := stockRepo.Upsert(ctx, dest); err != nil {
		return err
	}

	if err := uc.appendMovement(ctx, movRepo, input, input.FromLocationID,
		entity.DirectionOut, item.AvgCost, now, recorded); err != nil {
		return err
	}
	return uc.appendMovement(ctx, movRepo, input, input.ToLocationID,
		entity.DirectionIn, item.AvgCost, now, recorded)
}

// appendMovement escribe la entrada inmutable del libro y la acumula para
// notificar después del commit.
func (uc *RecordMovementUseCase) appendMovement(
	ctx context.Context,
	movRepo repository.MovementRepository,
	input *MovementInput,
	locationID, direction string,
	unitCost decimal.Decimal,
	now time.Time,
	recorded *[]*entity.Movement,
) error {
	mov := &entity.Movement{
		ID:             uuid.New().String(),
		ItemID:         input.ItemID,
		LocationID:     locationID,
		Type:           input.Type,
		Direction:      direction,
		Reason:         input.Reason,
		Quantity:       input.Quantity,
		CostAtMoment:   unitCost,
		TotalValue:     input.Quantity.Mul(unitCost),
		PeriodID:       input.PeriodID,
		DocumentType:   input.DocumentType,
		DocumentNumber: input.DocumentNumber,
		CreatedBy:      input.ActorID,
		CreatedAt:      now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return err
	}
	*recorded = append(*recorded, mov)
	return nil
}
