package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implementación de AuditRepository sobre PostgreSQL (usable con pool o tx).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// CreateWithLines persiste el conteo y su foto de líneas. Con pool usa
// un batch (pgx agrupa en una tx implícita por batch); dentro de un
// TxRunner el Querier ya es la tx del caller.
func (r *AuditRepo) CreateWithLines(ctx context.Context, audit *entity.Audit, lines []*entity.AuditLine) error {
	query := `
		INSERT INTO audits (id, location_id, status, started_at, closed_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`
	createdBy := nullIfEmpty(audit.CreatedBy)
	_, err := r.q.Exec(ctx, query,
		audit.ID, audit.LocationID, audit.Status, audit.StartedAt, audit.ClosedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create audit: %w", err)
	}
	lineQuery := `
		INSERT INTO audit_lines (audit_id, item_id, expected_qty, counted_qty, difference, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, line := range lines {
		_, err := r.q.Exec(ctx, lineQuery,
			line.AuditID, line.ItemID, line.ExpectedQty, line.CountedQty,
			line.Difference, line.Notes, line.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create audit line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un conteo por ID (nil si no existe).
func (r *AuditRepo) GetByID(ctx context.Context, id string) (*entity.Audit, error) {
	query := `
		SELECT id, location_id, status, started_at, closed_at, created_by
		FROM audits WHERE id = $1`
	var a entity.Audit
	var createdBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.LocationID, &a.Status, &a.StartedAt, &a.ClosedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}
	if createdBy != nil {
		a.CreatedBy = *createdBy
	}
	return &a, nil
}

// UpdateStatus persiste status y fecha de cierre.
func (r *AuditRepo) UpdateStatus(ctx context.Context, audit *entity.Audit) error {
	query := `UPDATE audits SET status = $2, closed_at = $3 WHERE id = $1`
	_, err := r.q.Exec(ctx, query, audit.ID, audit.Status, audit.ClosedAt)
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	return nil
}

// GetLine obtiene la línea de un artículo en un conteo (nil si no existe).
func (r *AuditRepo) GetLine(ctx context.Context, auditID, itemID string) (*entity.AuditLine, error) {
	query := `
		SELECT audit_id, item_id, expected_qty, counted_qty, difference, notes, movement_id, updated_at
		FROM audit_lines WHERE audit_id = $1 AND item_id = $2`
	var l entity.AuditLine
	var movementID *string
	err := r.q.QueryRow(ctx, query, auditID, itemID).Scan(
		&l.AuditID, &l.ItemID, &l.ExpectedQty, &l.CountedQty, &l.Difference, &l.Notes, &movementID, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit line: %w", err)
	}
	if movementID != nil {
		l.MovementID = *movementID
	}
	return &l, nil
}

// UpdateLine persiste conteo, diferencia, notas y el movimiento del ajuste
// aplicado (si lo hay) de una línea.
func (r *AuditRepo) UpdateLine(ctx context.Context, line *entity.AuditLine) error {
	query := `
		UPDATE audit_lines
		SET counted_qty = $3, difference = $4, notes = $5, movement_id = $6, updated_at = $7
		WHERE audit_id = $1 AND item_id = $2`
	_, err := r.q.Exec(ctx, query,
		line.AuditID, line.ItemID, line.CountedQty, line.Difference, line.Notes,
		nullIfEmpty(line.MovementID), line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update audit line: %w", err)
	}
	return nil
}

// ListLines lista las líneas de un conteo.
func (r *AuditRepo) ListLines(ctx context.Context, auditID string) ([]*entity.AuditLine, error) {
	query := `
		SELECT audit_id, item_id, expected_qty, counted_qty, difference, notes, movement_id, updated_at
		FROM audit_lines WHERE audit_id = $1 ORDER BY item_id`
	rows, err := r.q.Query(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list audit lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.AuditLine
	for rows.Next() {
		var l entity.AuditLine
		var movementID *string
		if err := rows.Scan(&l.AuditID, &l.ItemID, &l.ExpectedQty, &l.CountedQty, &l.Difference, &l.Notes, &movementID, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan audit line: %w", err)
		}
		if movementID != nil {
			l.MovementID = *movementID
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// ListByLocation lista conteos de una ubicación, del más reciente al más antiguo.
func (r *AuditRepo) ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]*entity.Audit, error) {
	query := `
		SELECT id, location_id, status, started_at, closed_at, created_by
		FROM audits WHERE location_id = $1
		ORDER BY started_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var audits []*entity.Audit
	for rows.Next() {
		var a entity.Audit
		var createdBy *string
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Status, &a.StartedAt, &a.ClosedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if createdBy != nil {
			a.CreatedBy = *createdBy
		}
		audits = append(audits, &a)
	}
	return audits, rows.Err()
}
