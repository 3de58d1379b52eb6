package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa la existencia actual de un artículo en una ubicación.
// Es una proyección derivada del libro de movimientos: se crea perezosamente
// con el primer movimiento sobre el par (artículo, ubicación) y nunca se
// borra, solo se deja en cero.
type Stock struct {
	ItemID       string
	LocationID   string
	Quantity     decimal.Decimal
	MinStock     decimal.Decimal
	ReorderPoint decimal.Decimal
	UpdatedAt    time.Time
}
