package dto

import "time"

// PeriodResponse período fiscal en respuestas.
type PeriodResponse struct {
	ID        string     `json:"id"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Status    string     `json:"status"`
	IsCurrent bool       `json:"is_current"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	ClosedBy  string     `json:"closed_by,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// FiscalConfigRequest body para actualizar la configuración fiscal.
type FiscalConfigRequest struct {
	LockAfterPeriods   int    `json:"lock_after_periods"`
	ManagedBy          string `json:"managed_by,omitempty"`
	AllowNegativeStock bool   `json:"allow_negative_stock"`
}
