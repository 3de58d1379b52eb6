package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// El costo promedio solo lo muta el registrador de movimientos vía
// UpdateAvgCost, dentro de la misma transacción del movimiento.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate bloquea la fila del artículo (SELECT FOR UPDATE) para
	// serializar la lectura-modificación del costo promedio en entradas.
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Item, error)
	UpdateAvgCost(ctx context.Context, itemID string, cost decimal.Decimal) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
}
