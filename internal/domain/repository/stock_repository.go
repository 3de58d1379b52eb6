package repository

import (
	"context"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por
// artículo+ubicación. Dentro de una transacción, GetForUpdate bloquea la
// fila (SELECT FOR UPDATE) para serializar los movimientos sobre la misma
// llave; llaves distintas avanzan en paralelo.
type StockRepository interface {
	Get(ctx context.Context, itemID, locationID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila para update. Si no existe devuelve una
	// fila en cero (creación perezosa al hacer Upsert).
	GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	// ListByLocation devuelve las filas de stock de una ubicación
	// (foto para iniciar un conteo físico).
	ListByLocation(ctx context.Context, locationID string) ([]*entity.Stock, error)
	// ListBelowReorderPoint devuelve las filas en o bajo su punto de reorden.
	ListBelowReorderPoint(ctx context.Context, locationID string) ([]*entity.Stock, error)
	UpdateThresholds(ctx context.Context, stock *entity.Stock) error
}
