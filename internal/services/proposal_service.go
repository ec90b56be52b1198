package services

import (
	"context"
	"errors"
	"time"

	"github.com/colib/colib-backend/internal/apperrors"
	"github.com/colib/colib-backend/internal/events"
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateProposalInput is the body of POST /proposals.
type CreateProposalInput struct {
	ListingID  string  `json:"listing_id" validate:"required,uuid"`
	TripID     *string `json:"trip_id" validate:"omitempty,uuid"`
	PriceCents *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Message    *string `json:"message" validate:"omitempty,max=1000"`
}

// AcceptResult is returned by Accept.
type AcceptResult struct {
	Shipment   *models.Shipment `json:"shipment"`
	ProposalID string           `json:"proposal_id"`
}

type ProposalService struct {
	tx        repository.TxManager
	proposals repository.ProposalStore
	listings  repository.ListingStore
	trips     repository.TripStore
	shipments repository.ShipmentStore
	events    repository.ShipmentEventStore
	gate      VerificationGate
	notifier  Notifier
	publisher events.Publisher
}

func NewProposalService(stores *repository.Stores, gate VerificationGate, notifier Notifier, publisher events.Publisher) *ProposalService {
	return &ProposalService{
		tx:        stores.Tx,
		proposals: stores.Proposals,
		listings:  stores.Listings,
		trips:     stores.Trips,
		shipments: stores.Shipments,
		events:    stores.Events,
		gate:      gate,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Create records a driver's offer on an active listing and tells the shipper.
func (s *ProposalService) Create(ctx context.Context, driverID string, input CreateProposalInput) (*models.Proposal, error) {
	ok, err := s.gate.IsApproved(ctx, driverID, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrVerificationRequired
	}

	listing, err := s.listings.GetByID(ctx, input.ListingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrListingNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if listing.ShipperID == driverID {
		return nil, apperrors.ErrOwnListing
	}
	if listing.Status != models.ListingActive {
		return nil, apperrors.ErrListingNotActive
	}

	if input.TripID != nil && *input.TripID != "" {
		trip, err := s.trips.GetByID(ctx, *input.TripID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.ErrTripNotOwned
		case err != nil:
			return nil, apperrors.Internal(err)
		case trip.DriverID != driverID:
			return nil, apperrors.ErrTripNotOwned
		}
	} else {
		input.TripID = nil
	}

	now := time.Now().UTC()
	proposal := &models.Proposal{
		ID:         uuid.NewString(),
		ListingID:  listing.ID,
		TripID:     input.TripID,
		DriverID:   driverID,
		ShipperID:  listing.ShipperID,
		PriceCents: input.PriceCents,
		Message:    input.Message,
		Status:     models.ProposalPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// Serialized against Accept through the listing row.
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.listings.TouchActive(ctx, listing.ID); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return apperrors.ErrListingNotActive
			}
			return err
		}
		return s.proposals.Create(ctx, proposal)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Log.WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"listing_id":  listing.ID,
		"driver_id":   driverID,
	}).Info("Proposal created")

	s.notifier.CreateAndPush(ctx, listing.ShipperID, models.NotifProposalReceived,
		"Nouvelle proposition", "Vous avez reçu une proposition sur votre annonce.",
		map[string]interface{}{"proposal_id": proposal.ID, "listing_id": listing.ID})

	return proposal, nil
}

// Accept turns a pending proposal into a shipment. The shipment, the listing
// status, the creation event and every sibling proposal are written in one
// transaction; the unique shipment index on listing_id settles racing accepts.
func (s *ProposalService) Accept(ctx context.Context, proposalID, userID string) (*AcceptResult, error) {
	p, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.ShipperID != userID {
		return nil, apperrors.ErrOnlyShipperAccept
	}

	// Checked before the pending rule: a sibling rejected by a winning accept
	// reports the existing shipment.
	if _, err := s.shipments.FindByListing(ctx, p.ListingID); err == nil {
		return nil, apperrors.ErrShipmentExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if p.Status != models.ProposalPending {
		return nil, apperrors.ErrProposalNotPending
	}

	now := time.Now().UTC()
	shipment := &models.Shipment{
		ID:         uuid.NewString(),
		ListingID:  p.ListingID,
		ProposalID: p.ID,
		DriverID:   p.DriverID,
		ShipperID:  p.ShipperID,
		Status:     models.ShipmentCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	event := newEvent(shipment.ID, userID, models.EventShipmentCreated, map[string]interface{}{
		"proposal_id": p.ID,
		"listing_id":  p.ListingID,
	})

	var rejected []models.Proposal
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shipments.Create(ctx, shipment); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return apperrors.ErrShipmentExists
			}
			return err
		}
		if err := s.listings.SetStatus(ctx, p.ListingID, models.ListingMatched); err != nil {
			return err
		}
		if err := s.events.Append(ctx, event); err != nil {
			return err
		}
		ok, err := s.proposals.CompareAndSetStatus(ctx, p.ID, models.ProposalPending, models.ProposalAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrProposalNotPending
		}
		rejected, err = s.proposals.RejectPendingExcept(ctx, p.ListingID, p.ID)
		return err
	})
	if err != nil {
		return nil, asAppError(err)
	}

	log := logger.Log.WithFields(logrus.Fields{"proposal_id": p.ID, "shipment_id": shipment.ID})
	log.WithField("rejected", len(rejected)).Info("Proposal accepted")

	s.notifier.CreateAndPush(ctx, p.DriverID, models.NotifProposalAccepted,
		"Proposition acceptée", "Votre proposition a été acceptée. Vous pouvez démarrer l'expédition.",
		map[string]interface{}{"proposal_id": p.ID, "shipment_id": shipment.ID, "listing_id": p.ListingID})
	for _, r := range rejected {
		s.notifyRejected(ctx, &r)
	}
	publish(ctx, s.publisher, event)

	return &AcceptResult{Shipment: shipment, ProposalID: p.ID}, nil
}

// Reject declines a pending proposal.
func (s *ProposalService) Reject(ctx context.Context, proposalID, userID string) (*models.Proposal, error) {
	p, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.ShipperID != userID {
		return nil, apperrors.ErrOnlyShipperReject
	}
	if p.Status != models.ProposalPending {
		return nil, apperrors.ErrProposalNotPending
	}

	ok, err := s.proposals.CompareAndSetStatus(ctx, p.ID, models.ProposalPending, models.ProposalRejected)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, apperrors.ErrProposalNotPending
	}
	p.Status = models.ProposalRejected
	p.UpdatedAt = time.Now().UTC()

	logger.Log.WithField("proposal_id", p.ID).Info("Proposal rejected")
	s.notifyRejected(ctx, p)
	return p, nil
}

// List returns the proposals the user sent or received, newest first.
func (s *ProposalService) List(ctx context.Context, userID, listingID string) ([]models.Proposal, error) {
	proposals, err := s.proposals.ListForUser(ctx, userID, listingID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return proposals, nil
}

// Get returns a proposal to its driver or shipper.
func (s *ProposalService) Get(ctx context.Context, proposalID, userID string) (*models.Proposal, error) {
	p, err := s.load(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.IsMember(userID) {
		return nil, apperrors.ErrForbidden
	}
	return p, nil
}

func (s *ProposalService) load(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrProposalNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func (s *ProposalService) notifyRejected(ctx context.Context, p *models.Proposal) {
	s.notifier.CreateAndPush(ctx, p.DriverID, models.NotifProposalRejected,
		"Proposition refusée", "Votre proposition n'a pas été retenue.",
		map[string]interface{}{"proposal_id": p.ID, "listing_id": p.ListingID})
}
