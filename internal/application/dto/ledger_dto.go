package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/movements.
type RecordMovementRequest struct {
	ItemID         string           `json:"item_id"`
	LocationID     string           `json:"location_id,omitempty"`
	FromLocationID string           `json:"from_location_id,omitempty"`
	ToLocationID   string           `json:"to_location_id,omitempty"`
	Type           string           `json:"type"`
	Direction      string           `json:"direction,omitempty"` // ADJUST: in | out
	Quantity       decimal.Decimal  `json:"quantity"`
	Reason         string           `json:"reason"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	PeriodID       string           `json:"period_id,omitempty"`
	DocumentType   string           `json:"document_type,omitempty"`
	DocumentNumber string           `json:"document_number,omitempty"`
}

// RecordMovementResponse resultado del registro.
type RecordMovementResponse struct {
	MovementIDs  []string `json:"movement_ids"`
	Deduplicated bool     `json:"deduplicated,omitempty"`
}

// StockResponse proyección de stock de una llave (artículo, ubicación).
type StockResponse struct {
	ItemID       string          `json:"item_id"`
	LocationID   string          `json:"location_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinStock     decimal.Decimal `json:"min_stock"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// MovementResponse entrada del libro en respuestas de listado.
type MovementResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	LocationID     string          `json:"location_id"`
	Type           string          `json:"type"`
	Direction      string          `json:"direction"`
	Reason         string          `json:"reason"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostAtMoment   decimal.Decimal `json:"cost_at_moment"`
	TotalValue     decimal.Decimal `json:"total_value"`
	PeriodID       string          `json:"period_id"`
	DocumentType   string          `json:"document_type,omitempty"`
	DocumentNumber string          `json:"document_number,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}
