package notify_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/kardex-core/internal/application/ledger"
	"github.com/tu-usuario/kardex-core/internal/infrastructure/notify"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

func event(movementID string) ledger.StockChangedEvent {
	return ledger.StockChangedEvent{
		MovementID: movementID,
		ItemID:     "item-1",
		LocationID: "bodega-1",
		Delta:      decimal.NewFromInt(1),
	}
}

func TestBus_EntregaATodosLosSuscriptores(t *testing.T) {
	bus := notify.NewBus(4, logger.NewNop())
	defer bus.Close()

	ch1, stop1 := bus.Subscribe()
	defer stop1()
	ch2, stop2 := bus.Subscribe()
	defer stop2()

	bus.PublishStockChanged(event("mov-1"))

	for i, ch := range []<-chan ledger.StockChangedEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "mov-1", ev.MovementID, "suscriptor %d", i)
		case <-time.After(time.Second):
			t.Fatalf("suscriptor %d no recibió el evento", i)
		}
	}
}

func TestBus_PublicarSinSuscriptores_NoBloquea(t *testing.T) {
	bus := notify.NewBus(1, logger.NewNop())
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		bus.PublishStockChanged(event("mov-1"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish bloqueó sin suscriptores")
	}
}

func TestBus_SuscriptorLentoPierdeEventos_PublishNoBloquea(t *testing.T) {
	bus := notify.NewBus(2, logger.NewNop())
	defer bus.Close()

	ch, stop := bus.Subscribe()
	defer stop()

	// Nadie drena: los dos primeros llenan el buffer, el tercero se descarta.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			bus.PublishStockChanged(event("mov"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish bloqueó con el buffer lleno")
	}
	assert.Len(t, ch, 2, "solo caben los eventos del buffer; el resto se pierde")
}

func TestBus_UnsubscribeCierraElCanal(t *testing.T) {
	bus := notify.NewBus(1, logger.NewNop())
	defer bus.Close()

	ch, stop := bus.Subscribe()
	stop()

	_, open := <-ch
	assert.False(t, open, "darse de baja cierra el canal")

	// Publicar después de la baja no debe entrar en pánico.
	bus.PublishStockChanged(event("mov-1"))
}

func TestBus_CloseCierraTodosLosCanales(t *testing.T) {
	bus := notify.NewBus(1, logger.NewNop())
	ch1, _ := bus.Subscribe()
	ch2, _ := bus.Subscribe()

	bus.Close()

	for i, ch := range []<-chan ledger.StockChangedEvent{ch1, ch2} {
		if _, open := <-ch; open {
			t.Fatalf("canal %d sigue abierto tras Close", i)
		}
	}

	// Operaciones posteriores son inocuas.
	bus.PublishStockChanged(event("mov-1"))
	ch3, stop3 := bus.Subscribe()
	if _, open := <-ch3; open {
		t.Fatal("suscripción tras Close debe devolver canal cerrado")
	}
	stop3()

	require.NotPanics(t, bus.Close, "Close es idempotente")
}
