package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emanuele-galle/fodi-os-sub008/internal/domain"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
)

type ChannelRepo interface {
	Create(ctx context.Context, channel *domain.Channel, memberIDs []uuid.UUID) error
	MemberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error)
	TouchLastRead(ctx context.Context, channelID, userID uuid.UUID, at time.Time) error
	LastReadAt(ctx context.Context, channelID, userID uuid.UUID) (time.Time, error)
}

type channelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChannelRepo(db *gorm.DB, log *logger.Logger) ChannelRepo {
	return &channelRepo{db: db, log: log.With("repo", "ChannelRepo")}
}

func (r *channelRepo) Create(ctx context.Context, channel *domain.Channel, memberIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		for _, id := range memberIDs {
			member := domain.ChannelMember{ChannelID: channel.ID, UserID: id}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *channelRepo) MemberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.ChannelMember{}).
		Where("channel_id = ?", channelID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *channelRepo) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *channelRepo) TouchLastRead(ctx context.Context, channelID, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Update("last_read_at", at).Error
}

func (r *channelRepo) LastReadAt(ctx context.Context, channelID, userID uuid.UUID) (time.Time, error) {
	var member domain.ChannelMember
	err := r.db.WithContext(ctx).
		First(&member, "channel_id = ? AND user_id = ?", channelID, userID).Error
	if err != nil {
		return time.Time{}, err
	}
	return member.LastReadAt, nil
}
