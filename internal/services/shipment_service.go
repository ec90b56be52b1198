package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/events"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/internal/storage"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UpdateStatusInput is the body of POST /shipments/{id}/status.
type UpdateStatusInput struct {
	Status models.ShipmentStatus `json:"status" validate:"required"`
}

// AddProofInput is the body of POST /shipments/{id}/proof.
type AddProofInput struct {
	Type        string `json:"type" validate:"required,max=32"`
	StoragePath string `json:"storage_path" validate:"required"`
}

// ProofUpload is a proof photo received as a multipart file.
type ProofUpload struct {
	Type        string
	ContentType string
	Extension   string
	Size        int64
	Body        io.Reader
}

type ShipmentService struct {
	tx        repository.TxManager
	shipments repository.ShipmentStore
	listings  repository.ListingStore
	events    repository.ShipmentEventStore
	proofs    repository.ProofStore
	notifier  Notifier
	publisher events.Publisher
	uploader  storage.Uploader
}

func NewShipmentService(stores *repository.Stores, notifier Notifier, publisher events.Publisher, uploader storage.Uploader) *ShipmentService {
	return &ShipmentService{
		tx:        stores.Tx,
		shipments: stores.Shipments,
		listings:  stores.Listings,
		events:    stores.Events,
		proofs:    stores.Proofs,
		notifier:  notifier,
		publisher: publisher,
		uploader:  uploader,
	}
}

// Get returns a shipment to its driver or shipper.
func (s *ShipmentService) Get(ctx context.Context, id, userID string) (*models.Shipment, error) {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.IsMember(userID) {
		return nil, apperrors.ErrForbidden
	}
	return shipment, nil
}

// List returns the shipments the user drives or ships, newest first.
func (s *ShipmentService) List(ctx context.Context, userID string) ([]models.Shipment, error) {
	shipments, err := s.shipments.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return shipments, nil
}

// ListEvents returns the shipment history in chronological order.
func (s *ShipmentService) ListEvents(ctx context.Context, id, userID string) ([]models.ShipmentEvent, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	list, err := s.events.ListByShipment(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

// ListProofs returns the shipment's proofs, oldest first.
func (s *ShipmentService) ListProofs(ctx context.Context, id, userID string) ([]models.Proof, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	proofs, err := s.proofs.ListByShipment(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return proofs, nil
}

// UpdateStatus moves the shipment along the state machine. Only the driver may
// do so; delivered and cancelled are copied onto the listing.
func (s *ShipmentService) UpdateStatus(ctx context.Context, id, userID string, to models.ShipmentStatus) (*models.Shipment, error) {
	if !models.IsValidShipmentStatus(to) {
		return nil, apperrors.Validation("Invalid shipment status", map[string]string{"status": string(to)})
	}

	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.IsMember(userID) {
		return nil, apperrors.ErrShipmentNotFound
	}
	if shipment.DriverID != userID {
		return nil, apperrors.ErrOnlyDriverUpdate
	}

	from := shipment.Status
	if !models.CanTransition(from, to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	event := newEvent(shipment.ID, userID, models.EventStatusUpdated, map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.shipments.CompareAndSetStatus(ctx, shipment.ID, from, to)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrStatusChanged
		}
		if err := s.events.Append(ctx, event); err != nil {
			return err
		}
		if listingStatus, ok := models.ListingStatusFor(to); ok {
			return s.listings.SetStatus(ctx, shipment.ListingID, listingStatus)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	shipment.Status = to
	shipment.UpdatedAt = event.CreatedAt
	logger.Log.WithFields(logrus.Fields{
		"shipment_id": shipment.ID,
		"from":        from,
		"to":          to,
	}).Info("Shipment status updated")

	data := map[string]interface{}{"shipment_id": shipment.ID}
	switch to {
	case models.ShipmentPickedUp:
		s.notifier.CreateAndPush(ctx, shipment.ShipperID, models.NotifShipmentPickedUp,
			"Colis enlevé", "Le transporteur a enlevé le colis.", data)
	case models.ShipmentDelivered:
		s.notifier.CreateAndPush(ctx, shipment.ShipperID, models.NotifShipmentDelivered,
			"Colis livré", "Votre colis a été livré.", data)
	}
	publish(ctx, s.publisher, event)

	return shipment, nil
}

// AddProof attaches an already stored photo to the shipment.
func (s *ShipmentService) AddProof(ctx context.Context, id, userID string, input AddProofInput) (*models.Proof, error) {
	shipment, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.addProof(ctx, shipment, userID, input)
}

// UploadProof stores the photo in object storage, then records it as a proof.
func (s *ShipmentService) UploadProof(ctx context.Context, id, userID string, upload ProofUpload) (*models.Proof, error) {
	shipment, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, apperrors.New(apperrors.KindUnavailable, "Proof upload is not configured")
	}

	key := fmt.Sprintf("shipments/%s/%s%s", shipment.ID, uuid.NewString(), upload.Extension)
	path, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		logger.Log.WithError(err).WithField("shipment_id", shipment.ID).Error("Proof upload failed")
		return nil, apperrors.Internal(err)
	}
	return s.addProof(ctx, shipment, userID, AddProofInput{Type: upload.Type, StoragePath: path})
}

func (s *ShipmentService) addProof(ctx context.Context, shipment *models.Shipment, userID string, input AddProofInput) (*models.Proof, error) {
	proof := &models.Proof{
		ID:          uuid.NewString(),
		ShipmentID:  shipment.ID,
		UploadedBy:  userID,
		Type:        input.Type,
		StoragePath: input.StoragePath,
		CreatedAt:   time.Now().UTC(),
	}
	event := newEvent(shipment.ID, userID, models.EventProofAdded, map[string]interface{}{
		"proof_id":     proof.ID,
		"type":         proof.Type,
		"storage_path": proof.StoragePath,
	})

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.proofs.Create(ctx, proof); err != nil {
			return err
		}
		return s.events.Append(ctx, event)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Log.WithFields(logrus.Fields{"shipment_id": shipment.ID, "proof_id": proof.ID}).Info("Proof added")
	publish(ctx, s.publisher, event)
	return proof, nil
}

func (s *ShipmentService) load(ctx context.Context, id string) (*models.Shipment, error) {
	shipment, err := s.shipments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrShipmentNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return shipment, nil
}
