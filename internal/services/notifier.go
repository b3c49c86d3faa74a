package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

// Notifiers are the producer-facing surface of the delivery layer. Each
// method maps one completed state mutation to exactly one fan-out call; the
// caller has already computed the recipient set (the hub does no recipient
// computation and no deduplication).

// =========================
// Chat notifier
// =========================

type ChatNotifier interface {
	MessageCreated(channelID uuid.UUID, recipients []uuid.UUID, msg *domain.ChatMessage)
	MessageRead(channelID uuid.UUID, recipients []uuid.UUID, readerID uuid.UUID)
	Typing(channelID uuid.UUID, recipients []uuid.UUID, userID uuid.UUID)
}

type chatNotifier struct {
	emit Emitter
}

func NewChatNotifier(emit Emitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) MessageCreated(channelID uuid.UUID, recipients []uuid.UUID, msg *domain.ChatMessage) {
	if n == nil || n.emit == nil || len(recipients) == 0 {
		return
	}
	n.emit.Emit(context.Background(), realtime.Delivery{
		ScopeID: channelID.String(),
		UserIDs: recipients,
		Envelope: realtime.Envelope{
			Type:      realtime.EventNewMessage,
			ChannelID: channelID.String(),
			Data:      map[string]any{"message": msg},
		},
	})
}

func (n *chatNotifier) MessageRead(channelID uuid.UUID, recipients []uuid.UUID, readerID uuid.UUID) {
	if n == nil || n.emit == nil || len(recipients) == 0 {
		return
	}
	n.emit.Emit(context.Background(), realtime.Delivery{
		ScopeID: channelID.String(),
		UserIDs: recipients,
		Envelope: realtime.Envelope{
			Type:      realtime.EventMessageRead,
			ChannelID: channelID.String(),
			Data:      map[string]any{"user_id": readerID},
		},
	})
}

func (n *chatNotifier) Typing(channelID uuid.UUID, recipients []uuid.UUID, userID uuid.UUID) {
	if n == nil || n.emit == nil || len(recipients) == 0 {
		return
	}
	n.emit.Emit(context.Background(), realtime.Delivery{
		ScopeID: channelID.String(),
		UserIDs: recipients,
		Envelope: realtime.Envelope{
			Type:      realtime.EventTyping,
			ChannelID: channelID.String(),
			Data:      map[string]any{"user_id": userID},
		},
	})
}

// =========================
// Badge notifier
// =========================

type BadgeNotifier interface {
	BadgeUpdate(userID uuid.UUID, channelID uuid.UUID, count int64)
}

type badgeNotifier struct {
	emit Emitter
}

func NewBadgeNotifier(emit Emitter) BadgeNotifier {
	return &badgeNotifier{emit: emit}
}

func (n *badgeNotifier) BadgeUpdate(userID uuid.UUID, channelID uuid.UUID, count int64) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Delivery{
		UserIDs: []uuid.UUID{userID},
		Envelope: realtime.Envelope{
			Type:      realtime.EventBadgeUpdate,
			ChannelID: channelID.String(),
			Data:      map[string]any{"count": count},
		},
	})
}

// =========================
// Data notifier
// =========================

// DataNotifier covers the generic "something you can see changed, refetch
// it" case used by the CRUD features outside the chat path.
type DataNotifier interface {
	DataChanged(recipients []uuid.UUID, entity string, entityID uuid.UUID)
}

type dataNotifier struct {
	emit Emitter
}

func NewDataNotifier(emit Emitter) DataNotifier {
	return &dataNotifier{emit: emit}
}

func (n *dataNotifier) DataChanged(recipients []uuid.UUID, entity string, entityID uuid.UUID) {
	if n == nil || n.emit == nil || len(recipients) == 0 {
		return
	}
	n.emit.Emit(context.Background(), realtime.Delivery{
		UserIDs: recipients,
		Envelope: realtime.Envelope{
			Type: realtime.EventDataChanged,
			Data: map[string]any{"entity": entity, "id": entityID},
		},
	})
}
