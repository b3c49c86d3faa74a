package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
)

// Registry maps a user id to the set of stream handles currently open for
// that user. It is the only shared mutable state of the delivery layer;
// all mutation goes through Register/Unregister and all reads through
// HandlesFor, which returns a point-in-time snapshot safe to iterate while
// other goroutines mutate the set.
type Registry struct {
	mu    sync.RWMutex
	log   *logger.Logger
	conns map[uuid.UUID]map[*Conn]struct{}
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		log:   log.With("component", "Registry"),
		conns: make(map[uuid.UUID]map[*Conn]struct{}),
	}
}

// Register adds a handle to its owner's set. A handle is bound to the user
// it was created for; registering it under any other id is refused so it can
// never appear in two users' sets.
func (r *Registry) Register(userID uuid.UUID, c *Conn) {
	if c == nil || userID == uuid.Nil {
		return
	}
	if userID != c.UserID {
		r.log.Warn("refusing to register handle under foreign user",
			"owner_id", c.UserID, "user_id", userID, "conn_id", c.ID)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	r.log.Debug("stream registered", "user_id", userID, "conn_id", c.ID, "streams", len(set))
}

// Unregister is idempotent: removing an absent handle is a no-op.
func (r *Registry) Unregister(userID uuid.UUID, c *Conn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
	r.log.Debug("stream unregistered", "user_id", userID, "conn_id", c.ID, "streams", len(set))
}

// HandlesFor returns the user's live handles as a snapshot. Entries may be
// concurrently reaped by a failed write elsewhere; callers must tolerate
// sends failing on any element.
func (r *Registry) HandlesFor(userID uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.conns[userID]
	if !ok {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
