package realtime

import "github.com/google/uuid"

// Event is the closed tag set carried on the wire. Clients must tolerate
// tags they do not know.
type Event string

const (
	EventConnected   Event = "connected"
	EventNewMessage  Event = "new_message"
	EventMessageRead Event = "message_read"
	EventTyping      Event = "typing"
	EventDataChanged Event = "data_changed"
	EventBadgeUpdate Event = "badge_update"
)

// Envelope is the unit of data written onto a stream. The delivery layer
// never inspects Data; it only routes by recipient set. ChannelID is
// producer bookkeeping, not a registry key.
type Envelope struct {
	Type      Event  `json:"type"`
	Data      any    `json:"data,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// Delivery is one fan-out request: an envelope plus the recipient user ids
// the producer computed for it. ScopeID is opaque metadata (usually the
// channel that triggered the fan-out) and is forwarded untouched.
type Delivery struct {
	ScopeID  string      `json:"scopeId,omitempty"`
	UserIDs  []uuid.UUID `json:"userIds"`
	Envelope Envelope    `json:"envelope"`
}
