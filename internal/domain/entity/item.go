package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de artículo. Los tipos asset usan costeo específico por unidad:
// una salida puede recibir un costo puntual sin alterar el promedio.
const (
	ItemTypeProduct = "product"
	ItemTypeService = "service"
	ItemTypeAsset   = "asset"
	ItemTypeKit     = "kit"
)

// Item representa un artículo o SKU del catálogo.
// AvgCost es el costo promedio ponderado derivado de los movimientos de
// entrada; solo el registrador de movimientos lo muta. Los artículos nunca
// se eliminan, solo se desactivan.
type Item struct {
	ID        string
	SKU       string // código único en el catálogo
	Name      string
	Type      string          // product, service, asset, kit
	AvgCost   decimal.Decimal // costo promedio ponderado (inicia en 0)
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsesSpecificCost indica si el tipo de artículo admite costo específico
// por unidad en salidas (lotes/series) en lugar del promedio ponderado.
func (i *Item) UsesSpecificCost() bool {
	return i.Type == ItemTypeAsset
}

// ValidItemType valida el tipo de artículo.
func ValidItemType(t string) bool {
	switch t {
	case ItemTypeProduct, ItemTypeService, ItemTypeAsset, ItemTypeKit:
		return true
	}
	return false
}
