package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia para el libro de
// movimientos. Solo inserta y lee: las entradas son inmutables por diseño
// y no existen Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// FindByDocument busca un movimiento previo con la misma referencia de
	// documento sobre la misma llave y dirección (de-duplicación de eventos
	// externos re-entregados). Devuelve nil si no existe.
	FindByDocument(ctx context.Context, docType, docNumber, itemID, locationID, direction string) (*entity.Movement, error)
	ListByItem(ctx context.Context, itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
}
