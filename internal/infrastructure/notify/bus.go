// Package notify implementa el fan-out en proceso de eventos de cambio de
// stock hacia colaboradores externos (refresco de UI, integración de
// documentos tributarios). Reemplaza al bus de eventos del DOM con una
// interfaz tipada y testeable.
package notify

import (
	"sync"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// Ensure Bus implements ledger.Notifier.
var _ ledger.Notifier = (*Bus)(nil)

// Bus distribuye eventos a suscriptores por canal con buffer. Publish
// nunca bloquea el commit de un movimiento: un suscriptor con el buffer
// lleno pierde el evento (se registra un warn) y debe reconciliar por
// movement_id — la entrega es al-menos-una-vez, los consumidores
// de-duplican.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan ledger.StockChangedEvent
	nextID int
	closed bool
	buffer int
	log    *logger.Logger
}

// NewBus construye el bus. buffer es el tamaño de cola por suscriptor.
func NewBus(buffer int, log *logger.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[int]chan ledger.StockChangedEvent),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registra un suscriptor y devuelve su canal de eventos y una
// función para darse de baja (cierra el canal).
func (b *Bus) Subscribe() (<-chan ledger.StockChangedEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan ledger.StockChangedEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch
	return ch, func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// PublishStockChanged entrega el evento a todos los suscriptores sin
// bloquear (envío no bloqueante por canal).
func (b *Bus) PublishStockChanged(ev ledger.StockChangedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Warn().
				Str("movement_id", ev.MovementID).
				Msg("suscriptor lento, evento de stock descartado")
		}
	}
}

// Close cierra el bus y los canales de todos los suscriptores.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
