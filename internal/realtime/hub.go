package realtime

import (
	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
)

// Hub is the fan-out surface producers talk to. Delivery is best-effort and
// at-most-once: a user with no live handle is silently skipped, and a handle
// whose write fails is reaped on the spot so the next fan-out no longer
// sees it.
type Hub struct {
	log      *logger.Logger
	registry *Registry
}

func NewHub(log *logger.Logger, registry *Registry) *Hub {
	return &Hub{
		log:      log.With("component", "Hub"),
		registry: registry,
	}
}

// NewConn mints a fresh handle for an accepted stream request. The handle is
// not live until the stream endpoint registers it.
func (h *Hub) NewConn(userID uuid.UUID) *Conn {
	return newConn(userID)
}

func (h *Hub) Attach(c *Conn) {
	h.registry.Register(c.UserID, c)
}

// Detach tears a handle down: idempotent, safe on any termination path.
func (h *Hub) Detach(c *Conn) {
	if c == nil {
		return
	}
	c.close()
	h.registry.Unregister(c.UserID, c)
}

// Unicast writes the envelope to every live handle of one user. A failed
// write reaps that handle and never blocks delivery to the rest.
func (h *Hub) Unicast(userID uuid.UUID, env Envelope) {
	for _, c := range h.registry.HandlesFor(userID) {
		if err := c.Send(env); err != nil {
			h.log.Debug("reaping dead stream", "user_id", userID, "conn_id", c.ID, "error", err)
			c.close()
			h.registry.Unregister(userID, c)
		}
	}
}

// Broadcast applies Unicast to every recipient. scopeID is producer
// bookkeeping only; it plays no part in registry lookups.
func (h *Hub) Broadcast(scopeID string, userIDs []uuid.UUID, env Envelope) {
	for _, userID := range userIDs {
		h.Unicast(userID, env)
	}
}

// Deliver routes a Delivery, typically one forwarded off the cross-process
// bus.
func (h *Hub) Deliver(d Delivery) {
	h.Broadcast(d.ScopeID, d.UserIDs, d.Envelope)
}

// Registry exposes the underlying table for the stream endpoint and tests.
func (h *Hub) Registry() *Registry { return h.registry }
