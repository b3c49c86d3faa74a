package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
)

type MessageRepo interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	CountSince(ctx context.Context, channelID uuid.UUID, since time.Time) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepo) CountSince(ctx context.Context, channelID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("channel_id = ? AND created_at > ?", channelID, since).
		Count(&count).Error
	return count, err
}
