package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartAuditRequest body para iniciar un conteo físico.
type StartAuditRequest struct {
	LocationID string `json:"location_id"`
}

// UpdateCountRequest body para registrar la cantidad contada de un artículo.
type UpdateCountRequest struct {
	ItemID     string          `json:"item_id"`
	CountedQty decimal.Decimal `json:"counted_qty"`
	Notes      string          `json:"notes,omitempty"`
}

// AuditResponse conteo físico en respuestas.
type AuditResponse struct {
	ID         string              `json:"id"`
	LocationID string              `json:"location_id"`
	Status     string              `json:"status"`
	StartedAt  time.Time           `json:"started_at"`
	ClosedAt   *time.Time          `json:"closed_at,omitempty"`
	Lines      []AuditLineResponse `json:"lines,omitempty"`
}

// AuditLineResponse línea de conteo en respuestas.
type AuditLineResponse struct {
	ItemID      string           `json:"item_id"`
	ExpectedQty decimal.Decimal  `json:"expected_qty"`
	CountedQty  *decimal.Decimal `json:"counted_qty,omitempty"`
	Difference  decimal.Decimal  `json:"difference"`
	Notes       string           `json:"notes,omitempty"`
	MovementID  string           `json:"movement_id,omitempty"`
}

// FinalizeAuditResponse resultado de la finalización.
type FinalizeAuditResponse struct {
	AppliedCount int `json:"applied_count"`
	FailedCount  int `json:"failed_count"`
}
