package sqlstore

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"gorm.io/gorm/clause"
)

type VerificationStore struct{ base }

func (s *VerificationStore) Get(ctx context.Context, userID string) (*models.ProfileVerification, error) {
	var v models.ProfileVerification
	if err := s.conn(ctx).First(&v, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *VerificationStore) Upsert(ctx context.Context, v *models.ProfileVerification) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"role", "status", "id_doc_url", "vehicle_doc_url",
			"reviewed_by", "review_note", "reviewed_at", "updated_at",
		}),
	}).Create(v).Error
}

func (s *VerificationStore) ListByStatus(ctx context.Context, status models.VerificationStatus, limit int) ([]models.ProfileVerification, error) {
	out := []models.ProfileVerification{}
	err := s.conn(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
