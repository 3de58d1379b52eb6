// Package billing consume eventos del colaborador de facturación y los
// traduce a salidas de inventario por venta.
package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// MovementRecorder puerto hacia el registrador de movimientos.
type MovementRecorder interface {
	Record(ctx context.Context, input ledger.MovementInput) (*ledger.MovementResult, error)
}

// InvoiceItem línea de una factura emitida por el colaborador.
type InvoiceItem struct {
	ItemID     string          `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	LocationID string          `json:"location_id,omitempty"` // vacía = ubicación por defecto
}

// InvoiceCreatedEvent contrato de entrada del colaborador de facturación.
// La reentrega del mismo evento (mismo InvoiceID e ítems) no descuenta
// stock dos veces: cada línea lleva referencia de documento
// invoice/<InvoiceID> y el registrador de-duplica por ella.
type InvoiceCreatedEvent struct {
	InvoiceID string        `json:"invoice_id"`
	Items     []InvoiceItem `json:"items"`
}

// LineResult resultado por línea del procesamiento de una factura.
type LineResult struct {
	ItemID       string
	MovementID   string
	Deduplicated bool
	Err          error
}

// InvoiceConsumer registra una salida por venta por cada línea de factura.
type InvoiceConsumer struct {
	recorder          MovementRecorder
	defaultLocationID string
	log               *logger.Logger
}

// NewInvoiceConsumer construye el consumidor. defaultLocationID resuelve
// las líneas que no traen ubicación.
func NewInvoiceConsumer(recorder MovementRecorder, defaultLocationID string, log *logger.Logger) *InvoiceConsumer {
	return &InvoiceConsumer{
		recorder:          recorder,
		defaultLocationID: defaultLocationID,
		log:               log,
	}
}

// HandleInvoiceCreated procesa el evento: una salida OUT/"sale" por línea.
// Cada línea es una transacción independiente; un fallo en una línea no
// detiene las demás y se reporta en su LineResult.
func (c *InvoiceConsumer) HandleInvoiceCreated(ctx context.Context, ev InvoiceCreatedEvent) ([]LineResult, error) {
	if ev.InvoiceID == "" || len(ev.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	results := make([]LineResult, 0, len(ev.Items))
	for _, item := range ev.Items {
		locationID := item.LocationID
		if locationID == "" {
			locationID = c.defaultLocationID
		}
		res, err := c.recorder.Record(ctx, ledger.MovementInput{
			ItemID:         item.ItemID,
			LocationID:     locationID,
			Type:           entity.MovementTypeOUT,
			Quantity:       item.Quantity,
			Reason:         entity.ReasonSale,
			ActorID:        "billing",
			DocumentType:   "invoice",
			DocumentNumber: ev.InvoiceID,
		})
		lr := LineResult{ItemID: item.ItemID}
		if err != nil {
			lr.Err = err
			c.log.Warn().
				Err(err).
				Str("invoice_id", ev.InvoiceID).
				Str("item_id", item.ItemID).
				Msg("salida por venta fallida")
		} else {
			lr.MovementID = res.MovementIDs[0]
			lr.Deduplicated = res.Deduplicated
		}
		results = append(results, lr)
	}
	return results, nil
}
