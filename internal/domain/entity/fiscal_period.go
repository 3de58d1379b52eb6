package entity

import (
	"fmt"
	"time"
)

// Estados de un período fiscal. Las transiciones válidas son
// open → closed (cierre contable) y open → locked (congelamiento
// administrativo); ambas son terminales.
const (
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
	PeriodStatusLocked = "locked"
)

// FiscalPeriod representa un mes calendario contable. Exactamente un
// período tiene IsCurrent=true en todo momento; cerrar el período actual
// crea y activa el mes siguiente en la misma transacción.
type FiscalPeriod struct {
	ID        string // YYYY-MM
	Year      int
	Month     int // 1-12
	Status    string
	IsCurrent bool
	StartDate time.Time
	EndDate   time.Time
	ClosedBy  string
	ClosedAt  *time.Time
	CreatedAt time.Time
}

// PeriodID construye el identificador YYYY-MM de un año y mes.
func PeriodID(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// NewFiscalPeriod construye un período abierto para el año/mes dados,
// con fechas de inicio y fin del mes calendario en UTC.
func NewFiscalPeriod(year, month int, current bool, now time.Time) *FiscalPeriod {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return &FiscalPeriod{
		ID:        PeriodID(year, month),
		Year:      year,
		Month:     month,
		Status:    PeriodStatusOpen,
		IsCurrent: current,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0).Add(-time.Second),
		CreatedAt: now,
	}
}

// NextPeriod devuelve el año y mes del período calendario siguiente.
func (p *FiscalPeriod) NextPeriod() (year, month int) {
	if p.Month == 12 {
		return p.Year + 1, 1
	}
	return p.Year, p.Month + 1
}

// MonthIndex devuelve el mes absoluto (año·12 + mes) para comparar
// distancias entre períodos.
func (p *FiscalPeriod) MonthIndex() int {
	return p.Year*12 + p.Month
}

// FiscalConfig es la configuración global del módulo fiscal: singleton
// creado en el primer arranque y actualizado desde ajustes.
type FiscalConfig struct {
	LockAfterPeriods   int    // períodos hacia atrás que siguen editables (≥0)
	PeriodType         string // monthly (único soportado)
	ManagedBy          string // vacío = este módulo; otro valor = contabilidad externa
	AllowNegativeStock bool   // permite que una salida deje stock negativo
	UpdatedAt          time.Time
}
