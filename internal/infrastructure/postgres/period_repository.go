package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

var _ repository.PeriodRepository = (*PeriodRepo)(nil)
var _ repository.FiscalConfigRepository = (*FiscalConfigRepo)(nil)

// PeriodRepo implementación de PeriodRepository sobre PostgreSQL (usable con pool o tx).
type PeriodRepo struct {
	q Querier
}

// NewPeriodRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPeriodRepository(q Querier) *PeriodRepo {
	return &PeriodRepo{q: q}
}

const periodColumns = `id, year, month, status, is_current, start_date, end_date, closed_by, closed_at, created_at`

// Create persiste un período fiscal. El índice único parcial sobre
// is_current=true respalda el invariante de un único período vigente.
func (r *PeriodRepo) Create(ctx context.Context, period *entity.FiscalPeriod) error {
	query := `
		INSERT INTO fiscal_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	closedBy := nullIfEmpty(period.ClosedBy)
	_, err := r.q.Exec(ctx, query,
		period.ID, period.Year, period.Month, period.Status, period.IsCurrent,
		period.StartDate, period.EndDate, closedBy, period.ClosedAt, period.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fiscal period: %w", err)
	}
	return nil
}

// GetByID obtiene un período por ID YYYY-MM (nil si no existe).
func (r *PeriodRepo) GetByID(ctx context.Context, id string) (*entity.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetCurrent obtiene el período con is_current=true (nil si no hay).
func (r *PeriodRepo) GetCurrent(ctx context.Context) (*entity.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE is_current = true`
	return r.scanOne(ctx, query)
}

// Update persiste status, is_current y datos de cierre.
func (r *PeriodRepo) Update(ctx context.Context, period *entity.FiscalPeriod) error {
	query := `
		UPDATE fiscal_periods
		SET status = $2, is_current = $3, closed_by = $4, closed_at = $5
		WHERE id = $1`
	closedBy := nullIfEmpty(period.ClosedBy)
	_, err := r.q.Exec(ctx, query,
		period.ID, period.Status, period.IsCurrent, closedBy, period.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("update fiscal period: %w", err)
	}
	return nil
}

// List lista períodos del más reciente al más antiguo.
func (r *PeriodRepo) List(ctx context.Context, limit, offset int) ([]*entity.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods ORDER BY year DESC, month DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fiscal periods: %w", err)
	}
	defer rows.Close()

	var periods []*entity.FiscalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fiscal period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *PeriodRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.FiscalPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal period: %w", err)
	}
	return p, nil
}

func scanPeriod(row pgx.Row) (*entity.FiscalPeriod, error) {
	var p entity.FiscalPeriod
	var closedBy *string
	err := row.Scan(
		&p.ID, &p.Year, &p.Month, &p.Status, &p.IsCurrent,
		&p.StartDate, &p.EndDate, &closedBy, &p.ClosedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if closedBy != nil {
		p.ClosedBy = *closedBy
	}
	return &p, nil
}

// FiscalConfigRepo implementación del singleton de configuración fiscal.
// La tabla tiene una sola fila con id fijo.
type FiscalConfigRepo struct {
	q Querier
}

// NewFiscalConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalConfigRepository(q Querier) *FiscalConfigRepo {
	return &FiscalConfigRepo{q: q}
}

// Get devuelve la configuración fiscal (nil si aún no existe).
func (r *FiscalConfigRepo) Get(ctx context.Context) (*entity.FiscalConfig, error) {
	query := `
		SELECT lock_after_periods, period_type, managed_by, allow_negative_stock, updated_at
		FROM fiscal_config WHERE id = 1`
	var cfg entity.FiscalConfig
	var managedBy *string
	err := r.q.QueryRow(ctx, query).Scan(
		&cfg.LockAfterPeriods, &cfg.PeriodType, &managedBy, &cfg.AllowNegativeStock, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal config: %w", err)
	}
	if managedBy != nil {
		cfg.ManagedBy = *managedBy
	}
	return &cfg, nil
}

// Save inserta o actualiza la configuración fiscal.
func (r *FiscalConfigRepo) Save(ctx context.Context, cfg *entity.FiscalConfig) error {
	query := `
		INSERT INTO fiscal_config (id, lock_after_periods, period_type, managed_by, allow_negative_stock, updated_at)
		VALUES (1, $1, $2, $3, $4, now())
		ON CONFLICT (id)
		DO UPDATE SET lock_after_periods = EXCLUDED.lock_after_periods,
			period_type = EXCLUDED.period_type,
			managed_by = EXCLUDED.managed_by,
			allow_negative_stock = EXCLUDED.allow_negative_stock,
			updated_at = now()`
	managedBy := nullIfEmpty(cfg.ManagedBy)
	_, err := r.q.Exec(ctx, query,
		cfg.LockAfterPeriods, cfg.PeriodType, managedBy, cfg.AllowNegativeStock,
	)
	if err != nil {
		return fmt.Errorf("save fiscal config: %w", err)
	}
	return nil
}
