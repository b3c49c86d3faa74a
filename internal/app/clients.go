package app

import (
	"fmt"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime/bus"
)

type Clients struct {
	Bus bus.Bus
}

// wireClients builds the optional cross-process bus. With no REDIS_ADDR the
// service runs single-process and producers emit straight into the hub.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	if cfg.RedisAddr == "" {
		return Clients{}, nil
	}
	b, err := bus.NewRedisBus(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis bus: %w", err)
	}
	return Clients{Bus: b}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
