// Package catalog expone el alta y consulta mínima de artículos y
// ubicaciones: lo justo para que los colaboradores registren las entidades
// que el libro de movimientos referencia.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

// UseCase casos de uso de catálogo.
type UseCase struct {
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
) *UseCase {
	return &UseCase{itemRepo: itemRepo, locationRepo: locationRepo, stockRepo: stockRepo}
}

// CreateItem registra un artículo. El SKU es único en el catálogo y el
// costo promedio arranca en cero (lo fijan las entradas).
func (uc *UseCase) CreateItem(ctx context.Context, sku, name, itemType string) (*entity.Item, error) {
	if sku == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	if itemType == "" {
		itemType = entity.ItemTypeProduct
	}
	if !entity.ValidItemType(itemType) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.itemRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	item := &entity.Item{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      name,
		Type:      itemType,
		AvgCost:   decimal.Zero,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem obtiene un artículo por ID.
func (uc *UseCase) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListItems lista artículos.
func (uc *UseCase) ListItems(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	return uc.itemRepo.List(ctx, limit, offset)
}

// DeactivateItem desactiva un artículo. Los artículos nunca se borran:
// el libro los referencia para siempre.
func (uc *UseCase) DeactivateItem(ctx context.Context, id string) error {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return uc.itemRepo.Deactivate(ctx, id)
}

// CreateLocation registra una ubicación; ParentID opcional para jerarquía.
func (uc *UseCase) CreateLocation(ctx context.Context, name, parentID, address string) (*entity.Location, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if parentID != "" {
		parent, err := uc.locationRepo.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.ErrNotFound
		}
	}
	now := time.Now()
	loc := &entity.Location{
		ID:        uuid.New().String(),
		Name:      name,
		ParentID:  parentID,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.locationRepo.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// ListLocations lista ubicaciones.
func (uc *UseCase) ListLocations(ctx context.Context, limit, offset int) ([]*entity.Location, error) {
	return uc.locationRepo.List(ctx, limit, offset)
}

// SetStockThresholds fija stock mínimo y punto de reorden de una llave
// (artículo, ubicación). No toca la cantidad: eso es del libro.
func (uc *UseCase) SetStockThresholds(ctx context.Context, itemID, locationID string, minStock, reorderPoint decimal.Decimal) error {
	if itemID == "" || locationID == "" || minStock.IsNegative() || reorderPoint.IsNegative() {
		return domain.ErrInvalidInput
	}
	stock, err := uc.stockRepo.Get(ctx, itemID, locationID)
	if err != nil {
		return err
	}
	stock.MinStock = minStock
	stock.ReorderPoint = reorderPoint
	stock.UpdatedAt = time.Now()
	return uc.stockRepo.UpdateThresholds(ctx, stock)
}

// LowStock devuelve las filas de stock en o bajo su punto de reorden.
// locationID vacía = todas las ubicaciones.
func (uc *UseCase) LowStock(ctx context.Context, locationID string) ([]*entity.Stock, error) {
	return uc.stockRepo.ListBelowReorderPoint(ctx, locationID)
}
