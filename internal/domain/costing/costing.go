// Package costing implementa el costeo promedio ponderado (servicio de dominio puro).
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
)

// Escala del costo unitario: todo costo se redondea a 4 decimales.
const costScale = 4

// NewWeightedAverageCost calcula el nuevo costo promedio ponderado tras una entrada.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
//
// El stock actual se fija en ≥0 antes de operar: un stock transitoriamente
// negativo (override de stock negativo activo) no debe torcer el promedio.
// Si la base (stock + entrada) queda en cero no hay sobre qué promediar y
// el resultado es 0. Función pura, sin I/O.
func NewWeightedAverageCost(currentStock, currentAvgCost, incomingQty, incomingUnitCost decimal.Decimal) decimal.Decimal {
	if currentStock.IsNegative() {
		currentStock = decimal.Zero
	}
	base := currentStock.Add(incomingQty)
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentStock.Mul(currentAvgCost).Add(incomingQty.Mul(incomingUnitCost))
	return num.Div(base).Round(costScale)
}

// OutboundUnitCost resuelve el costo unitario de una salida: el promedio
// ponderado vigente del artículo, salvo que el tipo admita costo específico
// (activos serializados) y el caller haya indicado uno. El costo específico
// se congela en el movimiento pero nunca altera el promedio.
func OutboundUnitCost(item *entity.Item, override *decimal.Decimal) decimal.Decimal {
	if override != nil && item.UsesSpecificCost() {
		return override.Round(costScale)
	}
	return item.AvgCost
}
