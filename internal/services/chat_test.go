package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/pkg/ctxutil"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

// stubChannelRepo records the persisted channel so tests can assert on the
// member set without a database.
type stubChannelRepo struct {
	created *domain.Channel
	members []uuid.UUID
}

func (f *stubChannelRepo) Create(_ context.Context, channel *domain.Channel, memberIDs []uuid.UUID) error {
	f.created = channel
	f.members = memberIDs
	return nil
}

func (f *stubChannelRepo) MemberIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.members, nil
}

func (f *stubChannelRepo) IsMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func (f *stubChannelRepo) TouchLastRead(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

func (f *stubChannelRepo) LastReadAt(context.Context, uuid.UUID, uuid.UUID) (time.Time, error) {
	return time.Time{}, nil
}

func TestCreateChannelNotifiesMembersExceptCreator(t *testing.T) {
	log := mustTestLogger(t)
	hub := realtime.NewHub(log, realtime.NewRegistry(log))
	emit := &HubEmitter{Hub: hub}
	repo := &stubChannelRepo{}

	svc := NewChatService(nil, log, repo, nil,
		NewChatNotifier(emit), NewBadgeNotifier(emit), NewDataNotifier(emit))

	creator := uuid.New()
	member := uuid.New()
	creatorConn := hub.NewConn(creator)
	memberConn := hub.NewConn(member)
	hub.Attach(creatorConn)
	hub.Attach(memberConn)

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: creator})
	channel, err := svc.CreateChannel(ctx, "general", []uuid.UUID{member, creator, uuid.Nil})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if len(repo.members) != 2 || repo.members[0] != creator {
		t.Fatalf("persisted members: want creator first of 2, got %v", repo.members)
	}

	env := recvEnvelope(t, memberConn.Outbound(), time.Second)
	if env.Type != realtime.EventDataChanged {
		t.Fatalf("member event: want=%s got=%s", realtime.EventDataChanged, env.Type)
	}
	if data, ok := env.Data.(map[string]any); !ok || data["id"] != channel.ID {
		t.Fatalf("payload must carry the new channel id, got %+v", env.Data)
	}

	select {
	case env := <-creatorConn.Outbound():
		t.Fatalf("creator must not be notified about its own creation, got %+v", env)
	default:
	}
}

func TestCreateChannelRejectsAnonymousCaller(t *testing.T) {
	log := mustTestLogger(t)
	hub := realtime.NewHub(log, realtime.NewRegistry(log))
	emit := &HubEmitter{Hub: hub}

	svc := NewChatService(nil, log, &stubChannelRepo{}, nil,
		NewChatNotifier(emit), NewBadgeNotifier(emit), NewDataNotifier(emit))

	if _, err := svc.CreateChannel(context.Background(), "general", nil); err == nil {
		t.Fatalf("expected error without authenticated user")
	}
}
