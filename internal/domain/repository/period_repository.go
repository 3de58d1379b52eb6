package repository

import (
	"context"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// PeriodRepository define el puerto de persistencia para períodos fiscales.
type PeriodRepository interface {
	Create(ctx context.Context, period *entity.FiscalPeriod) error
	GetByID(ctx context.Context, id string) (*entity.FiscalPeriod, error)
	// GetCurrent devuelve el período con is_current=true (nil si no hay).
	GetCurrent(ctx context.Context) (*entity.FiscalPeriod, error)
	// Update persiste status, is_current y datos de cierre.
	Update(ctx context.Context, period *entity.FiscalPeriod) error
	List(ctx context.Context, limit, offset int) ([]*entity.FiscalPeriod, error)
}

// FiscalConfigRepository define el puerto para la configuración fiscal
// singleton (creada en el primer arranque, actualizada desde ajustes).
type FiscalConfigRepository interface {
	Get(ctx context.Context) (*entity.FiscalConfig, error)
	Save(ctx context.Context, cfg *entity.FiscalConfig) error
}
