package repository

import (
	"context"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// AuditRepository define el puerto de persistencia para conteos físicos.
type AuditRepository interface {
	// CreateWithLines persiste el conteo y su foto de líneas en una sola
	// operación (misma transacción).
	CreateWithLines(ctx context.Context, audit *entity.Audit, lines []*entity.AuditLine) error
	GetByID(ctx context.Context, id string) (*entity.Audit, error)
	UpdateStatus(ctx context.Context, audit *entity.Audit) error
	GetLine(ctx context.Context, auditID, itemID string) (*entity.AuditLine, error)
	UpdateLine(ctx context.Context, line *entity.AuditLine) error
	ListLines(ctx context.Context, auditID string) ([]*entity.AuditLine, error)
	ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]*entity.Audit, error)
}
