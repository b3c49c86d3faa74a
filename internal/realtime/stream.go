package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultHeartbeatInterval = 30 * time.Second

// ServeStream runs one open stream until the client goes away, the handle is
// detached, or a write fails. The caller has already authenticated the
// request and attached the handle; this function owns the OPEN state only.
//
// The first application frame is always `connected`, so the client can tell
// "stream established" from "stream pending". Heartbeats are comment frames;
// they exist to defeat idle-connection timeouts in proxies and carry no
// application data.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request, c *Conn, heartbeat time.Duration) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	if err := writeFrame(w, Envelope{Type: EventConnected}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("stream context done", "conn_id", c.ID, "error", ctx.Err())
			return
		case <-c.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case env := <-c.Outbound():
			if err := writeFrame(w, env); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil // unmarshalable payload is the producer's bug, skip the frame
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", raw)
	return err
}
