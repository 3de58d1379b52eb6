package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest body para registrar un artículo.
type CreateItemRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // product, service, asset, kit
}

// ItemResponse artículo en respuestas.
type ItemResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateLocationRequest body para registrar una ubicación.
type CreateLocationRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Address  string `json:"address,omitempty"`
}

// LocationResponse ubicación en respuestas.
type LocationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Address  string `json:"address,omitempty"`
}

// StockThresholdsRequest body para fijar mínimos y punto de reorden.
type StockThresholdsRequest struct {
	ItemID       string          `json:"item_id"`
	LocationID   string          `json:"location_id"`
	MinStock     decimal.Decimal `json:"min_stock"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}
