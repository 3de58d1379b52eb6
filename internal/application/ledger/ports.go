package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: o se aplica stock + entrada del libro, o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		itemRepo repository.ItemRepository,
	) error) error
}

// PeriodGuard decide si un período fiscal todavía acepta mutaciones.
// Lo implementa el caso de uso de períodos; se inyecta como puerto para
// que el registrador no dependa del paquete period.
type PeriodGuard interface {
	// CheckEditable retorna nil si el período acepta movimientos,
	// domain.ErrPeriodNotFound o domain.ErrPeriodClosed en caso contrario.
	CheckEditable(ctx context.Context, periodID string) error
	// CurrentID devuelve el ID del período vigente (resolución por defecto).
	CurrentID(ctx context.Context) (string, error)
}

// StockChangedEvent es la notificación emitida tras cada movimiento
// confirmado. Los consumidores de-duplican por MovementID (entrega
// al-menos-una-vez).
type StockChangedEvent struct {
	MovementID   string          `json:"movement_id"`
	ItemID       string          `json:"item_id"`
	LocationID   string          `json:"location_id"`
	Delta        decimal.Decimal `json:"delta"` // con signo
	MovementType string          `json:"movement_type"`
	Reason       string          `json:"reason"`
}

// Notifier publica eventos de cambio de stock. La publicación jamás debe
// bloquear el commit del movimiento (fire-and-forget).
type Notifier interface {
	PublishStockChanged(ev StockChangedEvent)
}
