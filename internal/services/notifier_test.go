package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvEnvelope(t *testing.T, ch <-chan realtime.Envelope, timeout time.Duration) realtime.Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for envelope")
	}
	return realtime.Envelope{}
}

func TestChatNotifierSkipsTheSender(t *testing.T) {
	log := mustTestLogger(t)
	hub := realtime.NewHub(log, realtime.NewRegistry(log))
	emit := &HubEmitter{Hub: hub}
	notifier := NewChatNotifier(emit)

	userA := uuid.New()
	userB := uuid.New() // the sender
	userD := uuid.New()

	connA := hub.NewConn(userA)
	connB := hub.NewConn(userB)
	connD := hub.NewConn(userD)
	hub.Attach(connA)
	hub.Attach(connB)
	hub.Attach(connD)

	channelID := uuid.New()
	msg := &domain.ChatMessage{ID: uuid.New(), ChannelID: channelID, SenderID: userB, Body: "hi"}
	notifier.MessageCreated(channelID, []uuid.UUID{userA, userD}, msg)

	gotA := recvEnvelope(t, connA.Outbound(), time.Second)
	gotD := recvEnvelope(t, connD.Outbound(), time.Second)
	if gotA.Type != realtime.EventNewMessage || gotD.Type != realtime.EventNewMessage {
		t.Fatalf("recipients: want=%s got=%s and %s", realtime.EventNewMessage, gotA.Type, gotD.Type)
	}
	if gotA.ChannelID != channelID.String() {
		t.Fatalf("channel id: want=%s got=%s", channelID, gotA.ChannelID)
	}

	select {
	case env := <-connB.Outbound():
		t.Fatalf("sender must not receive its own message, got %+v", env)
	default:
	}
}

func TestBadgeNotifierUnicastsToOneUser(t *testing.T) {
	log := mustTestLogger(t)
	hub := realtime.NewHub(log, realtime.NewRegistry(log))
	notifier := NewBadgeNotifier(&HubEmitter{Hub: hub})

	userID := uuid.New()
	tab1 := hub.NewConn(userID)
	tab2 := hub.NewConn(userID)
	hub.Attach(tab1)
	hub.Attach(tab2)

	notifier.BadgeUpdate(userID, uuid.New(), 3)

	for _, conn := range []*realtime.Conn{tab1, tab2} {
		env := recvEnvelope(t, conn.Outbound(), time.Second)
		if env.Type != realtime.EventBadgeUpdate {
			t.Fatalf("badge event: want=%s got=%s", realtime.EventBadgeUpdate, env.Type)
		}
	}
}

func TestNotifiersIgnoreEmptyRecipientSets(t *testing.T) {
	log := mustTestLogger(t)
	hub := realtime.NewHub(log, realtime.NewRegistry(log))
	emit := &HubEmitter{Hub: hub}

	NewChatNotifier(emit).MessageCreated(uuid.New(), nil, &domain.ChatMessage{})
	NewDataNotifier(emit).DataChanged(nil, "channel", uuid.New())
	NewBadgeNotifier(emit).BadgeUpdate(uuid.Nil, uuid.New(), 0)
}
