package sqlstore

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
)

type ProposalStore struct{ base }

func (s *ProposalStore) Create(ctx context.Context, p *models.Proposal) error {
	return translate(s.conn(ctx).Create(p).Error)
}

func (s *ProposalStore) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	var p models.Proposal
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProposalStore) ListForUser(ctx context.Context, userID, listingID string) ([]models.Proposal, error) {
	q := s.conn(ctx).Where("(driver_id = ? OR shipper_id = ?)", userID, userID)
	if listingID != "" {
		q = q.Where("listing_id = ?", listingID)
	}
	proposals := []models.Proposal{}
	return proposals, q.Order("created_at DESC").Find(&proposals).Error
}

func (s *ProposalStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.ProposalStatus) (bool, error) {
	res := s.conn(ctx).Model(&models.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *ProposalStore) RejectPendingExcept(ctx context.Context, listingID, exceptID string) ([]models.Proposal, error) {
	db := s.conn(ctx)

	var rejected []models.Proposal
	err := db.Where("listing_id = ? AND status = ? AND id <> ?", listingID, models.ProposalPending, exceptID).
		Find(&rejected).Error
	if err != nil || len(rejected) == 0 {
		return nil, err
	}

	ids := make([]string, 0, len(rejected))
	for _, p := range rejected {
		ids = append(ids, p.ID)
	}
	ts := now()
	err = db.Model(&models.Proposal{}).
		Where("id IN ? AND status = ?", ids, models.ProposalPending).
		Updates(map[string]interface{}{"status": models.ProposalRejected, "updated_at": ts}).Error
	if err != nil {
		return nil, err
	}
	for i := range rejected {
		rejected[i].Status = models.ProposalRejected
		rejected[i].UpdatedAt = ts
	}
	return rejected, nil
}

func (s *ProposalStore) ExistsForTrip(ctx context.Context, tripID, shipperID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Proposal{}).
		Where("trip_id = ? AND shipper_id = ?", tripID, shipperID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}
