package sqlstore

import (
	"context"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"gorm.io/gorm/clause"
)

type NotificationStore struct{ base }

func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return s.conn(ctx).Create(n).Error
}

func (s *NotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	err := s.conn(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now()).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *NotificationStore) ListByTypeSince(ctx context.Context, userID, notifType string, since time.Time) ([]models.Notification, error) {
	var out []models.Notification
	err := s.conn(ctx).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, notifType, since).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *NotificationStore) MarkAsRead(ctx context.Context, id, userID string) error {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", now()).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

type DeviceStore struct{ base }

func (s *DeviceStore) Upsert(ctx context.Context, d *models.DeviceToken) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "updated_at"}),
	}).Create(d).Error
}

func (s *DeviceStore) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := s.conn(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error
	return tokens, err
}
