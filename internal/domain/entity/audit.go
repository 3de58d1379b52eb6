package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un conteo físico (auditoría de inventario).
// open → reviewing: conteos enviados, congelados a la espera de aprobación.
// open|reviewing → closed: ajustes aplicados; terminal, sin más ediciones.
const (
	AuditStatusOpen      = "open"
	AuditStatusReviewing = "reviewing"
	AuditStatusClosed    = "closed"
)

// Audit representa un conteo físico sobre una ubicación. Al crearse se
// toma una foto del stock de cada artículo presente en la ubicación; las
// líneas solo se editan mientras el conteo está abierto.
type Audit struct {
	ID         string
	LocationID string
	Status     string
	StartedAt  time.Time
	ClosedAt   *time.Time
	CreatedBy  string
}

// Editable indica si las líneas del conteo admiten cambios.
func (a *Audit) Editable() bool {
	return a.Status == AuditStatusOpen
}

// Finalizable indica si el conteo puede finalizarse (aplicar ajustes).
func (a *Audit) Finalizable() bool {
	return a.Status == AuditStatusOpen || a.Status == AuditStatusReviewing
}

// AuditLine es la línea de conteo de un artículo: cantidad esperada según
// el libro al iniciar el conteo y cantidad contada físicamente.
// CountedQty es nil hasta que el bodeguero registra el conteo.
type AuditLine struct {
	AuditID     string
	ItemID      string
	ExpectedQty decimal.Decimal
	CountedQty  *decimal.Decimal
	Difference  decimal.Decimal // CountedQty - ExpectedQty (0 mientras no hay conteo)
	Notes       string
	// MovementID referencia el ajuste ya aplicado al libro. Una vez
	// aplicado, el conteo de la línea deja de ser corregible: el ajuste
	// es una entrada inmutable.
	MovementID string
	UpdatedAt  time.Time
}

// Counted indica si la línea ya tiene cantidad contada.
func (l *AuditLine) Counted() bool {
	return l.CountedQty != nil
}

// Adjusted indica si el ajuste de la línea ya entró al libro.
func (l *AuditLine) Adjusted() bool {
	return l.MovementID != ""
}
