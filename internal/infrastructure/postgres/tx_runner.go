package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/application/period"
	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

// Ensure TxRunner implements ledger.TxRunner and period.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ period.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los conflictos de serialización y deadlocks se mapean a
// domain.ErrConcurrentModification para que el caller reintente.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos del libro atados a la
// tx y hace Commit o Rollback. Junto con SELECT FOR UPDATE en las filas de
// stock, garantiza a-lo-más-una mutación en vuelo por llave
// (artículo, ubicación).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
) error) error {
	return r.inTx(ctx, func(tx Querier) error {
		return fn(NewMovementRepository(tx), NewStockRepository(tx), NewItemRepository(tx))
	})
}

// RunPeriods inicia una transacción con repos de períodos fiscales
// (cierre atómico: apagar is_current y activar el mes siguiente).
func (r *TxRunner) RunPeriods(ctx context.Context, fn func(
	periodRepo repository.PeriodRepository,
	configRepo repository.FiscalConfigRepository,
) error) error {
	return r.inTx(ctx, func(tx Querier) error {
		return fn(NewPeriodRepository(tx), NewFiscalConfigRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// mapTxError traduce errores de Postgres a errores de dominio reintentables
// o de duplicidad; el resto pasa tal cual.
func mapTxError(err error) error {
	switch {
	case isSerializationFailure(err):
		return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
	default:
		return err
	}
}
