package sqlstore

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
)

type ListingStore struct{ base }

func (s *ListingStore) Create(ctx context.Context, l *models.Listing) error {
	return translate(s.conn(ctx).Create(l).Error)
}

func (s *ListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := s.conn(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *ListingStore) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, int64, error) {
	q := s.conn(ctx).Model(&models.Listing{})
	if f.ShipperID != "" {
		q = q.Where("shipper_id = ?", f.ShipperID)
	}
	if f.ExcludeShipperID != "" {
		q = q.Where("shipper_id <> ?", f.ExcludeShipperID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listings := []models.Listing{}
	err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (s *ListingStore) ListInBox(ctx context.Context, box models.BoundingBox, limit int) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := s.conn(ctx).
		Where("status = ?", models.ListingActive).
		Where("destination_lat BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("destination_lng BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Order("created_at DESC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

func (s *ListingStore) Update(ctx context.Context, l *models.Listing) error {
	res := s.conn(ctx).Model(&models.Listing{}).
		Where("id = ? AND status IN ?", l.ID, models.EditableStatuses).
		Updates(l.EditableFields())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStateChanged
	}
	return nil
}

func (s *ListingStore) SetStatus(ctx context.Context, id string, status models.ListingStatus) error {
	res := s.conn(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ListingStore) TouchActive(ctx context.Context, id string) error {
	res := s.conn(ctx).Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, models.ListingActive).
		Update("updated_at", now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStateChanged
	}
	return nil
}

func (s *ListingStore) Delete(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("status IN ?", models.EditableStatuses).Delete(&models.Listing{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStateChanged
	}
	return nil
}
