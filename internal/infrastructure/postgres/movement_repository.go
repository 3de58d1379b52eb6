package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). Solo INSERT y SELECT: las entradas del libro son
// inmutables y el esquema no expone UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, item_id, location_id, type, direction, reason, quantity,
	cost_at_moment, total_value, period_id, document_type, document_number, created_by, created_at`

// Create persiste una entrada del libro. El índice único parcial sobre
// (document_type, document_number, item_id, location_id, direction)
// respalda la de-duplicación por referencia de documento bajo carrera.
func (r *MovementRepo) Create(ctx context.Context, movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	docType := nullIfEmpty(movement.DocumentType)
	docNumber := nullIfEmpty(movement.DocumentNumber)
	createdBy := nullIfEmpty(movement.CreatedBy)
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ItemID, movement.LocationID, movement.Type, movement.Direction,
		movement.Reason, movement.Quantity, movement.CostAtMoment, movement.TotalValue,
		movement.PeriodID, docType, docNumber, createdBy, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID (nil si no existe).
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	row := r.q.QueryRow(ctx, query, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// FindByDocument busca una entrada previa con la misma referencia de
// documento sobre la misma llave y dirección (nil si no existe).
func (r *MovementRepo) FindByDocument(ctx context.Context, docType, docNumber, itemID, locationID, direction string) (*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM movements
		WHERE document_type = $1 AND document_number = $2
		  AND item_id = $3 AND location_id = $4 AND direction = $5`
	row := r.q.QueryRow(ctx, query, docType, docNumber, itemID, locationID, direction)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find movement by document: %w", err)
	}
	return m, nil
}

// ListByItem lista entradas de un artículo en un rango de fechas.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.list(ctx, "item_id", itemID, from, to, limit, offset)
}

// ListByLocation lista entradas de una ubicación en un rango de fechas.
func (r *MovementRepo) ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.list(ctx, "location_id", locationID, from, to, limit, offset)
}

func (r *MovementRepo) list(ctx context.Context, column, value string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE ` + column + ` = $1`
	args := []any{value}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var docType, docNumber, createdBy *string
	err := row.Scan(
		&m.ID, &m.ItemID, &m.LocationID, &m.Type, &m.Direction, &m.Reason,
		&m.Quantity, &m.CostAtMoment, &m.TotalValue, &m.PeriodID,
		&docType, &docNumber, &createdBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if docType != nil {
		m.DocumentType = *docType
	}
	if docNumber != nil {
		m.DocumentNumber = *docNumber
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
