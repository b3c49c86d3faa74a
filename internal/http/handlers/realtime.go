package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/pkg/ctxutil"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

// RealtimeHandler is the stream endpoint. One request holds one long-lived
// response stream: authenticate, mint a handle, register it, serve until the
// transport ends, then tear down. A session re-opening its stream replaces
// the previous one so a tab never holds two connections.
type RealtimeHandler struct {
	log       *logger.Logger
	hub       *realtime.Hub
	heartbeat time.Duration

	mu      sync.Mutex
	streams map[uuid.UUID]*realtime.Conn // key: session id
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, heartbeat time.Duration) *RealtimeHandler {
	return &RealtimeHandler{
		log:       log.With("handler", "RealtimeHandler"),
		hub:       hub,
		heartbeat: heartbeat,
		streams:   make(map[uuid.UUID]*realtime.Conn),
	}
}

func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if rd.SessionID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session id"})
		return
	}

	conn := h.hub.NewConn(rd.UserID)

	h.mu.Lock()
	if existing, ok := h.streams[rd.SessionID]; ok {
		h.hub.Detach(existing)
	}
	h.streams[rd.SessionID] = conn
	h.mu.Unlock()

	h.hub.Attach(conn)
	h.log.Debug("stream open", "user_id", rd.UserID, "conn_id", conn.ID)

	h.hub.ServeStream(c.Writer, c.Request, conn, h.heartbeat)

	h.mu.Lock()
	if h.streams[rd.SessionID] == conn {
		delete(h.streams, rd.SessionID)
	}
	h.mu.Unlock()
	h.hub.Detach(conn)
	h.log.Debug("stream closed", "user_id", rd.UserID, "conn_id", conn.ID)
}
