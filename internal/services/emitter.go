package services

import (
	"context"

	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime/bus"
)

// Emitter is the one seam between producers and the delivery layer. The hub
// emitter delivers in-process; the redis emitter publishes to the bus so
// every process (this one included) forwards into its local hub.
type Emitter interface {
	Emit(ctx context.Context, d realtime.Delivery)
}

type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(ctx context.Context, d realtime.Delivery) {
	e.Hub.Deliver(d)
}

type BusEmitter struct{ Bus bus.Bus }

func (e *BusEmitter) Emit(ctx context.Context, d realtime.Delivery) {
	_ = e.Bus.Publish(ctx, d)
}
