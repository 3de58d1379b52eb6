package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN       = "IN"       // entrada
	MovementTypeOUT      = "OUT"      // salida
	MovementTypeADJUST   = "ADJUST"   // ajuste (conteo físico, corrección)
	MovementTypeTRANSFER = "TRANSFER" // traslado entre ubicaciones
)

// Dirección del movimiento. Los tipos ADJUST y TRANSFER generan entradas
// del libro en ambas direcciones, por eso se registra aparte del tipo.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Razones de dominio más usadas. El campo es un código libre; estas
// constantes cubren los flujos del propio núcleo.
const (
	ReasonPurchase      = "purchase"
	ReasonSale          = "sale"
	ReasonCorrection    = "correction"
	ReasonPhysicalAudit = "physical_audit"
	ReasonTransfer      = "transfer"
)

// Movement es una entrada inmutable del libro de inventario: una vez
// escrita nunca se edita ni se borra; las correcciones son nuevos
// movimientos que compensan. El stock es una proyección derivada de
// esta tabla, que es la única fuente de verdad.
type Movement struct {
	ID             string
	ItemID         string
	LocationID     string
	Type           string          // IN, OUT, ADJUST, TRANSFER
	Direction      string          // in | out
	Reason         string          // purchase, sale, correction, physical_audit...
	Quantity       decimal.Decimal // magnitud, siempre > 0
	CostAtMoment   decimal.Decimal // costo unitario congelado al registrar
	TotalValue     decimal.Decimal // Quantity * CostAtMoment
	PeriodID       string          // período fiscal YYYY-MM
	DocumentType   string          // referencia externa opcional: invoice, audit...
	DocumentNumber string
	CreatedBy      string
	CreatedAt      time.Time
}

// SignedDelta devuelve el efecto del movimiento sobre la cantidad en stock.
func (m *Movement) SignedDelta() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
