package repository

import (
	"context"
	"errors"
	"time"

	"github.com/colib/colib-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStateChanged is returned by guarded writes when the record is no
	// longer in a state that allows the write, or no longer exists.
	ErrStateChanged = errors.New("record state changed")
)

// TxManager runs fn inside a store transaction. Stores called with the ctx
// passed to fn take part in that transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, int64, error)
	ListInBox(ctx context.Context, box models.BoundingBox, limit int) ([]models.Listing, error)
	// Update writes the editable fields only while the stored status is one of
	// models.EditableStatuses, and returns ErrStateChanged otherwise.
	Update(ctx context.Context, listing *models.Listing) error
	SetStatus(ctx context.Context, id string, status models.ListingStatus) error
	// TouchActive bumps updated_at of an active listing and returns
	// ErrStateChanged otherwise. Run inside a transaction it conflicts with a
	// concurrent SetStatus on the same listing.
	TouchActive(ctx context.Context, id string) error
	// Delete removes the listing under the same status guard as Update.
	Delete(ctx context.Context, id string) error
}

type TripStore interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	ListByDriver(ctx context.Context, driverID string, limit int) ([]models.Trip, error)
	ListRecent(ctx context.Context, excludeDriverID string, limit int) ([]models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, id string) error
}

type TripLocationStore interface {
	Upsert(ctx context.Context, loc *models.TripLocation) error
	Get(ctx context.Context, tripID string) (*models.TripLocation, error)
}

type ProposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	// ListForUser returns proposals where userID is driver or shipper, newest
	// first. An empty listingID means all listings.
	ListForUser(ctx context.Context, userID, listingID string) ([]models.Proposal, error)
	// CompareAndSetStatus moves the proposal from one status to another and
	// reports false when the proposal was no longer in status from.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.ProposalStatus) (bool, error)
	// RejectPendingExcept rejects every other pending proposal of the listing
	// and returns the proposals it rejected.
	RejectPendingExcept(ctx context.Context, listingID, exceptID string) ([]models.Proposal, error)
	ExistsForTrip(ctx context.Context, tripID, shipperID string) (bool, error)
}

type ShipmentStore interface {
	// Create returns ErrDuplicateKey when the listing already has a shipment.
	Create(ctx context.Context, shipment *models.Shipment) error
	GetByID(ctx context.Context, id string) (*models.Shipment, error)
	FindByListing(ctx context.Context, listingID string) (*models.Shipment, error)
	ListForUser(ctx context.Context, userID string) ([]models.Shipment, error)
	ListByStatuses(ctx context.Context, statuses []models.ShipmentStatus) ([]models.Shipment, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to models.ShipmentStatus) (bool, error)
}

type ShipmentEventStore interface {
	Append(ctx context.Context, event *models.ShipmentEvent) error
	ListByShipment(ctx context.Context, shipmentID string) ([]models.ShipmentEvent, error)
}

type ProofStore interface {
	Create(ctx context.Context, proof *models.Proof) error
	ListByShipment(ctx context.Context, shipmentID string) ([]models.Proof, error)
}

type VerificationStore interface {
	Get(ctx context.Context, userID string) (*models.ProfileVerification, error)
	Upsert(ctx context.Context, v *models.ProfileVerification) error
	ListByStatus(ctx context.Context, status models.VerificationStatus, limit int) ([]models.ProfileVerification, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notif *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	ListByTypeSince(ctx context.Context, userID, notifType string, since time.Time) ([]models.Notification, error)
	// MarkAsRead returns ErrNotFound unless the notification belongs to userID.
	MarkAsRead(ctx context.Context, id, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type DeviceStore interface {
	// Upsert registers the token, moving it to the given user if it already exists.
	Upsert(ctx context.Context, device *models.DeviceToken) error
	TokensForUser(ctx context.Context, userID string) ([]string, error)
}

// Stores bundles one backend's implementations.
type Stores struct {
	Tx            TxManager
	Listings      ListingStore
	Trips         TripStore
	TripLocations TripLocationStore
	Proposals     ProposalStore
	Shipments     ShipmentStore
	Events        ShipmentEventStore
	Proofs        ProofStore
	Verifications VerificationStore
	Notifications NotificationStore
	Devices       DeviceStore
}
