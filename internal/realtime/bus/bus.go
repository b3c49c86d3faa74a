package bus

import (
	"context"

	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

// Bus fans deliveries out across server processes. A producer publishes on
// its own process; every process forwards bus messages into its local hub so
// a stream held open elsewhere still receives the event.
type Bus interface {
	Publish(ctx context.Context, d realtime.Delivery) error
	StartForwarder(ctx context.Context, onDelivery func(d realtime.Delivery)) error
	Close() error
}
