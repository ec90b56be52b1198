package sqlstore

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"gorm.io/gorm/clause"
)

type TripStore struct{ base }

func (s *TripStore) Create(ctx context.Context, t *models.Trip) error {
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *TripStore) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	var t models.Trip
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *TripStore) ListByDriver(ctx context.Context, driverID string, limit int) ([]models.Trip, error) {
	trips := []models.Trip{}
	q := s.conn(ctx).Where("driver_id = ?", driverID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return trips, q.Find(&trips).Error
}

func (s *TripStore) ListRecent(ctx context.Context, excludeDriverID string, limit int) ([]models.Trip, error) {
	trips := []models.Trip{}
	q := s.conn(ctx).Where("driver_id <> ?", excludeDriverID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return trips, q.Find(&trips).Error
}

func (s *TripStore) Update(ctx context.Context, t *models.Trip) error {
	res := s.conn(ctx).Model(&models.Trip{}).Where("id = ?", t.ID).Select("*").Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *TripStore) Delete(ctx context.Context, id string) error {
	res := s.conn(ctx).Delete(&models.Trip{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type TripLocationStore struct{ base }

func (s *TripLocationStore) Upsert(ctx context.Context, loc *models.TripLocation) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trip_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"driver_id", "lat", "lng", "updated_at"}),
	}).Create(loc).Error
}

func (s *TripLocationStore) Get(ctx context.Context, tripID string) (*models.TripLocation, error) {
	var loc models.TripLocation
	if err := s.conn(ctx).First(&loc, "trip_id = ?", tripID).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}
