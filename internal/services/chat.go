package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emanuele-galle/fodi-os-sub008/internal/data/repos"
	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/pkg/ctxutil"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
)

// ChatService is the producer for chat events: every operation persists
// first, computes its recipient set (members of the channel except the
// actor), then hands the delivery layer exactly one fan-out per logical
// event. Delivery is best-effort; clients reconcile via ordinary fetches.
type ChatService interface {
	CreateChannel(ctx context.Context, name string, memberIDs []uuid.UUID) (*domain.Channel, error)
	SendMessage(ctx context.Context, channelID uuid.UUID, body string) (*domain.ChatMessage, error)
	MarkRead(ctx context.Context, channelID uuid.UUID) error
	Typing(ctx context.Context, channelID uuid.UUID) error
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	channelRepo   repos.ChannelRepo
	messageRepo   repos.MessageRepo
	chatNotifier  ChatNotifier
	badgeNotifier BadgeNotifier
	dataNotifier  DataNotifier
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	channelRepo repos.ChannelRepo,
	messageRepo repos.MessageRepo,
	chatNotifier ChatNotifier,
	badgeNotifier BadgeNotifier,
	dataNotifier DataNotifier,
) ChatService {
	return &chatService{
		db:            db,
		log:           log.With("service", "ChatService"),
		channelRepo:   channelRepo,
		messageRepo:   messageRepo,
		chatNotifier:  chatNotifier,
		badgeNotifier: badgeNotifier,
		dataNotifier:  dataNotifier,
	}
}

// CreateChannel persists a channel with the caller plus the listed members,
// then tells the other members to refetch their channel list.
func (s *chatService) CreateChannel(ctx context.Context, name string, memberIDs []uuid.UUID) (*domain.Channel, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	if name == "" {
		return nil, fmt.Errorf("empty channel name")
	}

	members := []uuid.UUID{rd.UserID}
	for _, id := range memberIDs {
		if id != rd.UserID && id != uuid.Nil {
			members = append(members, id)
		}
	}

	channel := &domain.Channel{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	if err := s.channelRepo.Create(ctx, channel, members); err != nil {
		return nil, fmt.Errorf("persist channel: %w", err)
	}

	s.dataNotifier.DataChanged(members[1:], "channel", channel.ID)
	return channel, nil
}

func (s *chatService) SendMessage(ctx context.Context, channelID uuid.UUID, body string) (*domain.ChatMessage, error) {
	senderID, err := s.requireMember(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, fmt.Errorf("empty message body")
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		ChannelID: channelID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	recipients, err := s.recipientsExcept(ctx, channelID, senderID)
	if err != nil {
		s.log.Warn("recipient lookup failed, skipping fan-out", "channel_id", channelID, "error", err)
		return msg, nil
	}
	s.chatNotifier.MessageCreated(channelID, recipients, msg)
	for _, recipientID := range recipients {
		lastRead, err := s.channelRepo.LastReadAt(ctx, channelID, recipientID)
		if err != nil {
			continue
		}
		count, err := s.messageRepo.CountSince(ctx, channelID, lastRead)
		if err != nil {
			continue
		}
		s.badgeNotifier.BadgeUpdate(recipientID, channelID, count)
	}
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, channelID uuid.UUID) error {
	readerID, err := s.requireMember(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.channelRepo.TouchLastRead(ctx, channelID, readerID, time.Now()); err != nil {
		return fmt.Errorf("update read cursor: %w", err)
	}
	recipients, err := s.recipientsExcept(ctx, channelID, readerID)
	if err != nil {
		s.log.Warn("recipient lookup failed, skipping fan-out", "channel_id", channelID, "error", err)
		return nil
	}
	s.chatNotifier.MessageRead(channelID, recipients, readerID)
	return nil
}

// Typing persists nothing; the ping only exists while someone is watching.
func (s *chatService) Typing(ctx context.Context, channelID uuid.UUID) error {
	userID, err := s.requireMember(ctx, channelID)
	if err != nil {
		return err
	}
	recipients, err := s.recipientsExcept(ctx, channelID, userID)
	if err != nil {
		return nil
	}
	s.chatNotifier.Typing(channelID, recipients, userID)
	return nil
}

func (s *chatService) requireMember(ctx context.Context, channelID uuid.UUID) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no authenticated user in context")
	}
	ok, err := s.channelRepo.IsMember(ctx, channelID, rd.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("membership lookup: %w", err)
	}
	if !ok {
		return uuid.Nil, fmt.Errorf("not a member of channel %s", channelID)
	}
	return rd.UserID, nil
}

func (s *chatService) recipientsExcept(ctx context.Context, channelID, excludeID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.channelRepo.MemberIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}
	recipients := make([]uuid.UUID, 0, len(members))
	for _, id := range members {
		if id != excludeID {
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}
