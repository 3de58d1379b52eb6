package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	items     map[string]*entity.Item
	locations map[string]*entity.Location
	stocks    map[string]*entity.Stock
	movements []*entity.Movement
	cfg       *entity.FiscalConfig
}

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[string]*entity.Item),
		locations: make(map[string]*entity.Location),
		stocks:    make(map[string]*entity.Stock),
		cfg:       &entity.FiscalConfig{LockAfterPeriods: 1, PeriodType: "monthly"},
	}
}

func stockKey(itemID, locationID string) string { return itemID + "|" + locationID }

// memTxRunner serializa las "transacciones" con un mutex propio: emula el
// bloqueo por fila de la base real. failures inyecta errores en los
// primeros intentos para probar el reintento.
type memTxRunner struct {
	store    *memStore
	txMu     sync.Mutex
	failures []error
	calls    int
}

func (r *memTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	if r.calls < len(r.failures) {
		err := r.failures[r.calls]
		r.calls++
		if err != nil {
			return err
		}
	} else {
		r.calls++
	}

	// Copia para simular rollback: solo se aplica si fn no falla.
	snapshot := r.store.snapshot()
	err := fn(&memMovementRepo{store: r.store}, &memStockRepo{store: r.store}, &memItemRepo{store: r.store})
	if err != nil {
		r.store.restore(snapshot)
	}
	return err
}

type storeSnapshot struct {
	items     map[string]entity.Item
	stocks    map[string]entity.Stock
	movements int
}

func (s *memStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		items:     make(map[string]entity.Item, len(s.items)),
		stocks:    make(map[string]entity.Stock, len(s.stocks)),
		movements: len(s.movements),
	}
	for k, v := range s.items {
		snap.items[k] = *v
	}
	for k, v := range s.stocks {
		snap.stocks[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*entity.Item, len(snap.items))
	for k, v := range snap.items {
		item := v
		s.items[k] = &item
	}
	s.stocks = make(map[string]*entity.Stock, len(snap.stocks))
	for k, v := range snap.stocks {
		st := v
		s.stocks[k] = &st
	}
	s.movements = s.movements[:snap.movements]
}

type memItemRepo struct{ store *memStore }

func (r *memItemRepo) Create(_ context.Context, item *entity.Item) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.items[item.ID] = item
	return nil
}

func (r *memItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *memItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *memItemRepo) GetBySKU(_ context.Context, sku string) (*entity.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, item := range r.store.items {
		if item.SKU == sku {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memItemRepo) UpdateAvgCost(_ context.Context, itemID string, cost decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	item.AvgCost = cost
	return nil
}

func (r *memItemRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Active = false
	return nil
}

func (r *memItemRepo) List(_ context.Context, _, _ int) ([]*entity.Item, error) { return nil, nil }

type memLocationRepo struct{ store *memStore }

func (r *memLocationRepo) Create(_ context.Context, loc *entity.Location) error {
	r.store.locations[loc.ID] = loc
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	loc, ok := r.store.locations[id]
	if !ok {
		return nil, nil
	}
	return loc, nil
}

func (r *memLocationRepo) List(_ context.Context, _, _ int) ([]*entity.Location, error) {
	return nil, nil
}

type memStockRepo struct{ store *memStore }

func (r *memStockRepo) Get(_ context.Context, itemID, locationID string) (*entity.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.stocks[stockKey(itemID, locationID)]; ok {
		cp := *s
		return &cp, nil
	}
	return &entity.Stock{ItemID: itemID, LocationID: locationID}, nil
}

func (r *memStockRepo) GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.Stock, error) {
	return r.Get(ctx, itemID, locationID)
}

func (r *memStockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *stock
	r.store.stocks[stockKey(stock.ItemID, stock.LocationID)] = &cp
	return nil
}

func (r *memStockRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Stock
	for _, s := range r.store.stocks {
		if s.LocationID == locationID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memStockRepo) ListBelowReorderPoint(_ context.Context, _ string) ([]*entity.Stock, error) {
	return nil, nil
}

func (r *memStockRepo) UpdateThresholds(_ context.Context, stock *entity.Stock) error {
	return r.Upsert(context.Background(), stock)
}

type memMovementRepo struct{ store *memStore }

func (r *memMovementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	// Emula la constraint única de referencia de documento.
	if m.DocumentType != "" && m.DocumentNumber != "" {
		for _, prev := range r.store.movements {
			if prev.DocumentType == m.DocumentType && prev.DocumentNumber == m.DocumentNumber &&
				prev.ItemID == m.ItemID && prev.LocationID == m.LocationID && prev.Direction == m.Direction {
				return domain.ErrDuplicate
			}
		}
	}
	cp := *m
	r.store.movements = append(r.store.movements, &cp)
	return nil
}

func (r *memMovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) FindByDocument(_ context.Context, docType, docNumber, itemID, locationID, direction string) (*entity.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.movements {
		if m.DocumentType == docType && m.DocumentNumber == docNumber &&
			m.ItemID == itemID && m.LocationID == locationID && m.Direction == direction {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) ListByItem(_ context.Context, itemID string, _, _ *time.Time, _, _ int) ([]*entity.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Movement
	for _, m := range r.store.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByLocation(_ context.Context, locationID string, _, _ *time.Time, _, _ int) ([]*entity.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Movement
	for _, m := range r.store.movements {
		if m.LocationID == locationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memConfigRepo struct{ store *memStore }

func (r *memConfigRepo) Get(_ context.Context) (*entity.FiscalConfig, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.cfg == nil {
		return nil, nil
	}
	cp := *r.store.cfg
	return &cp, nil
}

func (r *memConfigRepo) Save(_ context.Context, cfg *entity.FiscalConfig) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *cfg
	r.store.cfg = &cp
	return nil
}

// fakePeriods guardián de períodos con período vigente fijo y un set de
// períodos cerrados.
type fakePeriods struct {
	current string
	closed  map[string]bool
}

func (f *fakePeriods) CurrentID(_ context.Context) (string, error) { return f.current, nil }

func (f *fakePeriods) CheckEditable(_ context.Context, periodID string) error {
	if f.closed[periodID] {
		return domain.ErrPeriodClosed
	}
	return nil
}

// fakeNotifier acumula los eventos publicados.
type fakeNotifier struct {
	mu     sync.Mutex
	events []ledger.StockChangedEvent
}

func (f *fakeNotifier) PublishStockChanged(ev ledger.StockChangedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// ──────────────────────────────────────────────────────────────────────────────
// Arnés
// ──────────────────────────────────────────────────────────────────────────────

type harness struct {
	store    *memStore
	uc       *ledger.RecordMovementUseCase
	notifier *fakeNotifier
	periods  *fakePeriods
	runner   *memTxRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	runner := &memTxRunner{store: store}
	notifier := &fakeNotifier{}
	periods := &fakePeriods{current: "2025-08", closed: map[string]bool{}}
	uc := ledger.NewRecordMovementUseCase(
		runner,
		&memItemRepo{store: store},
		&memLocationRepo{store: store},
		&memStockRepo{store: store},
		&memMovementRepo{store: store},
		&memConfigRepo{store: store},
		periods,
		notifier,
		logger.NewNop(),
	)
	return &harness{store: store, uc: uc, notifier: notifier, periods: periods, runner: runner}
}

func (h *harness) addItem(id string, itemType string, avgCost string) {
	h.store.items[id] = &entity.Item{
		ID: id, SKU: "SKU-" + id, Name: id, Type: itemType,
		AvgCost: decimal.RequireFromString(avgCost), Active: true,
	}
}

func (h *harness) addLocation(id string) {
	h.store.locations[id] = &entity.Location{ID: id, Name: id}
}

func (h *harness) setStock(itemID, locationID, qty string) {
	h.store.stocks[stockKey(itemID, locationID)] = &entity.Stock{
		ItemID: itemID, LocationID: locationID, Quantity: decimal.RequireFromString(qty),
	}
}

func (h *harness) stockQty(itemID, locationID string) decimal.Decimal {
	if s, ok := h.store.stocks[stockKey(itemID, locationID)]; ok {
		return s.Quantity
	}
	return decimal.Zero
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas (IN)
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_IN_ActualizaStockYCostoPromedio(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "5.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "10")

	res, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID:     "item-1",
		LocationID: "bodega-1",
		Type:       entity.MovementTypeIN,
		Quantity:   dec("10"),
		Reason:     entity.ReasonPurchase,
		UnitCost:   decPtr("7.00"),
		ActorID:    "user-1",
	})
	require.NoError(t, err)
	require.Len(t, res.MovementIDs, 1)
	assert.False(t, res.Deduplicated)

	// (10*5 + 10*7) / 20 = 6
	assert.True(t, h.store.items["item-1"].AvgCost.Equal(dec("6")),
		"promedio esperado 6, obtenido %s", h.store.items["item-1"].AvgCost)
	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("20")))

	require.Len(t, h.store.movements, 1)
	mov := h.store.movements[0]
	assert.Equal(t, entity.DirectionIn, mov.Direction)
	assert.True(t, mov.CostAtMoment.Equal(dec("7")), "la entrada congela el costo de compra")
	assert.True(t, mov.TotalValue.Equal(dec("70")))
	assert.Equal(t, "2025-08", mov.PeriodID, "período vacío se resuelve al vigente")
	assert.Equal(t, "user-1", mov.CreatedBy)

	assert.Equal(t, 1, h.notifier.count(), "cada movimiento confirmado emite un evento")
}

func TestRecord_IN_PrimeraCompraFijaPromedio(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "0")
	h.addLocation("bodega-1")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeIN,
		Quantity: dec("5"), Reason: entity.ReasonPurchase, UnitCost: decPtr("3.2501"),
	})
	require.NoError(t, err)
	assert.True(t, h.store.items["item-1"].AvgCost.Equal(dec("3.2501")))
	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("5")), "la fila de stock se crea perezosamente")
}

func TestRecord_IN_SinCostoUnitario_Rechazado(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "0")
	h.addLocation("bodega-1")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeIN,
		Quantity: dec("5"), Reason: entity.ReasonPurchase,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, h.store.movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas (OUT)
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_OUT_DescuentaAlPromedioVigente(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "6.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "20")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("8"), Reason: entity.ReasonSale,
	})
	require.NoError(t, err)

	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("12")))
	mov := h.store.movements[0]
	assert.True(t, mov.CostAtMoment.Equal(dec("6")), "la salida congela el promedio vigente")
	assert.True(t, h.store.items["item-1"].AvgCost.Equal(dec("6")), "una salida nunca altera el promedio")
}

func TestRecord_OUT_StockInsuficiente_NoDejaRastro(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "6.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "5")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("8"), Reason: entity.ReasonSale,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Movimiento fallido = sin entrada, sin cambio de stock, sin evento.
	assert.Empty(t, h.store.movements)
	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("5")))
	assert.Equal(t, 0, h.notifier.count())
}

func TestRecord_OUT_StockNegativoPermitidoPorConfig(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "6.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "5")
	h.store.cfg.AllowNegativeStock = true

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("8"), Reason: entity.ReasonSale,
	})
	require.NoError(t, err)
	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("-3")))
}

func TestRecord_OUT_ActivoUsaCostoEspecifico(t *testing.T) {
	h := newHarness(t)
	h.addItem("activo-1", entity.ItemTypeAsset, "100.00")
	h.addLocation("bodega-1")
	h.setStock("activo-1", "bodega-1", "3")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "activo-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("1"), Reason: entity.ReasonSale, UnitCost: decPtr("250.00"),
	})
	require.NoError(t, err)

	mov := h.store.movements[0]
	assert.True(t, mov.CostAtMoment.Equal(dec("250")), "activo sale al costo específico")
	assert.True(t, h.store.items["activo-1"].AvgCost.Equal(dec("100")),
		"el costo específico no toca el promedio")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes y transferencias
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_ADJUST_ValoraAlPromedioSinAlterarlo(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "4.50")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "100")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeADJUST,
		Direction: entity.DirectionOut, Quantity: dec("3"), Reason: entity.ReasonPhysicalAudit,
	})
	require.NoError(t, err)

	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("97")))
	mov := h.store.movements[0]
	assert.True(t, mov.CostAtMoment.Equal(dec("4.5")))
	assert.True(t, h.store.items["item-1"].AvgCost.Equal(dec("4.5")))
}

func TestRecord_ADJUST_SinDireccion_Rechazado(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "4.50")
	h.addLocation("bodega-1")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeADJUST,
		Quantity: dec("3"), Reason: entity.ReasonCorrection,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecord_TRANSFER_DosEntradasYSumaConstante(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "2.00")
	h.addLocation("origen")
	h.addLocation("destino")
	h.setStock("item-1", "origen", "10")

	res, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", FromLocationID: "origen", ToLocationID: "destino",
		Type: entity.MovementTypeTRANSFER, Quantity: dec("4"), Reason: entity.ReasonTransfer,
	})
	require.NoError(t, err)
	require.Len(t, res.MovementIDs, 2, "TRANSFER produce dos entradas del libro")

	assert.True(t, h.stockQty("item-1", "origen").Equal(dec("6")))
	assert.True(t, h.stockQty("item-1", "destino").Equal(dec("4")))

	out, in := h.store.movements[0], h.store.movements[1]
	assert.Equal(t, entity.DirectionOut, out.Direction)
	assert.Equal(t, "origen", out.LocationID)
	assert.Equal(t, entity.DirectionIn, in.Direction)
	assert.Equal(t, "destino", in.LocationID)
	assert.Equal(t, 2, h.notifier.count())
}

func TestRecord_TRANSFER_Deduplicado_DevuelveAmbasEntradas(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "2.00")
	h.addLocation("origen")
	h.addLocation("destino")
	h.setStock("item-1", "origen", "10")

	input := ledger.MovementInput{
		ItemID: "item-1", FromLocationID: "origen", ToLocationID: "destino",
		Type: entity.MovementTypeTRANSFER, Quantity: dec("4"), Reason: entity.ReasonTransfer,
		DocumentType: "remision", DocumentNumber: "R-77",
	}
	first, err := h.uc.Record(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, first.MovementIDs, 2)

	again, err := h.uc.Record(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, first.MovementIDs, again.MovementIDs,
		"el duplicado devuelve la misma forma que el TRANSFER fresco")
	assert.True(t, h.stockQty("item-1", "origen").Equal(dec("6")), "nada se mueve dos veces")
	assert.True(t, h.stockQty("item-1", "destino").Equal(dec("4")))
}

func TestRecord_TRANSFER_MismaUbicacion_Rechazado(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "2.00")
	h.addLocation("origen")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", FromLocationID: "origen", ToLocationID: "origen",
		Type: entity.MovementTypeTRANSFER, Quantity: dec("4"), Reason: entity.ReasonTransfer,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones y guardas
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_CantidadNoPositiva_Rechazada(t *testing.T) {
	h := newHarness(t)
	for _, qty := range []string{"0", "-1"} {
		_, err := h.uc.Record(context.Background(), ledger.MovementInput{
			ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
			Quantity: dec(qty), Reason: entity.ReasonSale,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "qty=%s", qty)
	}
}

func TestRecord_ArticuloInexistente_NotFound(t *testing.T) {
	h := newHarness(t)
	h.addLocation("bodega-1")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "nope", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("1"), Reason: entity.ReasonSale,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecord_ArticuloInactivo_Rechazado(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "1.00")
	h.store.items["item-1"].Active = false
	h.addLocation("bodega-1")

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("1"), Reason: entity.ReasonSale,
	})
	assert.ErrorIs(t, err, domain.ErrItemInactive)
}

func TestRecord_PeriodoCerrado_Rechazado(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "1.00")
	h.addLocation("bodega-1")
	h.periods.closed["2025-01"] = true

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeIN,
		Quantity: dec("1"), Reason: entity.ReasonPurchase, UnitCost: decPtr("1"),
		PeriodID: "2025-01",
	})
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	assert.Empty(t, h.store.movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// De-duplicación por referencia de documento
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_ReferenciaDuplicada_EsIdempotente(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "6.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "20")

	input := ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("2"), Reason: entity.ReasonSale,
		DocumentType: "invoice", DocumentNumber: "F-001",
	}

	first, err := h.uc.Record(context.Background(), input)
	require.NoError(t, err)
	require.False(t, first.Deduplicated)

	second, err := h.uc.Record(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated, "la reentrega no aplica nada nuevo")
	assert.Equal(t, first.MovementIDs, second.MovementIDs, "devuelve la entrada original")

	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("18")), "el stock se descuenta una sola vez")
	assert.Len(t, h.store.movements, 1)
}

func TestRecord_MismaReferenciaOtraLlave_NoDeduplica(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "6.00")
	h.addItem("item-2", entity.ItemTypeProduct, "3.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "20")
	h.setStock("item-2", "bodega-1", "20")

	for _, itemID := range []string{"item-1", "item-2"} {
		res, err := h.uc.Record(context.Background(), ledger.MovementInput{
			ItemID: itemID, LocationID: "bodega-1", Type: entity.MovementTypeOUT,
			Quantity: dec("1"), Reason: entity.ReasonSale,
			DocumentType: "invoice", DocumentNumber: "F-002",
		})
		require.NoError(t, err)
		assert.False(t, res.Deduplicated, "item=%s", itemID)
	}
	assert.Len(t, h.store.movements, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintentos y concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_ReintentaAnteConflictoDeSerializacion(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "1.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "10")
	// Dos intentos fallan con conflicto, el tercero entra.
	h.runner.failures = []error{domain.ErrConcurrentModification, domain.ErrConcurrentModification}

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("1"), Reason: entity.ReasonSale,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, h.runner.calls)
}

func TestRecord_ReintentosAgotados_DevuelveConflicto(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "1.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "10")
	h.runner.failures = []error{
		domain.ErrConcurrentModification,
		domain.ErrConcurrentModification,
		domain.ErrConcurrentModification,
	}

	_, err := h.uc.Record(context.Background(), ledger.MovementInput{
		ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeOUT,
		Quantity: dec("1"), Reason: entity.ReasonSale,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Empty(t, h.store.movements)
}

func TestRecord_MovimientosConcurrentes_SumaDeDeltas(t *testing.T) {
	h := newHarness(t)
	h.addItem("item-1", entity.ItemTypeProduct, "1.00")
	h.addLocation("bodega-1")
	h.setStock("item-1", "bodega-1", "0")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.uc.Record(context.Background(), ledger.MovementInput{
				ItemID: "item-1", LocationID: "bodega-1", Type: entity.MovementTypeIN,
				Quantity: dec("1"), Reason: entity.ReasonPurchase, UnitCost: decPtr("1"),
				ActorID: fmt.Sprintf("user-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.True(t, h.stockQty("item-1", "bodega-1").Equal(dec("50")),
		"el stock final es la suma de todos los deltas confirmados")
	assert.Len(t, h.store.movements, n)
	assert.Equal(t, n, h.notifier.count())
}
