package sqlstore

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
)

type ShipmentStore struct{ base }

func (s *ShipmentStore) Create(ctx context.Context, sh *models.Shipment) error {
	return translate(s.conn(ctx).Create(sh).Error)
}

func (s *ShipmentStore) GetByID(ctx context.Context, id string) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.conn(ctx).First(&sh, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sh, nil
}

func (s *ShipmentStore) FindByListing(ctx context.Context, listingID string) (*models.Shipment, error) {
	var sh models.Shipment
	if err := s.conn(ctx).First(&sh, "listing_id = ?", listingID).Error; err != nil {
		return nil, translate(err)
	}
	return &sh, nil
}

func (s *ShipmentStore) ListForUser(ctx context.Context, userID string) ([]models.Shipment, error) {
	shipments := []models.Shipment{}
	err := s.conn(ctx).
		Where("driver_id = ? OR shipper_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&shipments).Error
	return shipments, err
}

func (s *ShipmentStore) ListByStatuses(ctx context.Context, statuses []models.ShipmentStatus) ([]models.Shipment, error) {
	shipments := []models.Shipment{}
	err := s.conn(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&shipments).Error
	return shipments, err
}

func (s *ShipmentStore) CompareAndSetStatus(ctx context.Context, id string, from, to models.ShipmentStatus) (bool, error) {
	res := s.conn(ctx).Model(&models.Shipment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type EventStore struct{ base }

func (s *EventStore) Append(ctx context.Context, e *models.ShipmentEvent) error {
	return s.conn(ctx).Create(e).Error
}

func (s *EventStore) ListByShipment(ctx context.Context, shipmentID string) ([]models.ShipmentEvent, error) {
	events := []models.ShipmentEvent{}
	err := s.conn(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

type ProofStore struct{ base }

func (s *ProofStore) Create(ctx context.Context, p *models.Proof) error {
	return s.conn(ctx).Create(p).Error
}

func (s *ProofStore) ListByShipment(ctx context.Context, shipmentID string) ([]models.Proof, error) {
	proofs := []models.Proof{}
	err := s.conn(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&proofs).Error
	return proofs, err
}
