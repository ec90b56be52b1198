package sqlstore

import (
	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/internal/repository"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the stores use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Listing{},
		&models.Trip{},
		&models.TripLocation{},
		&models.Proposal{},
		&models.Shipment{},
		&models.ShipmentEvent{},
		&models.Proof{},
		&models.ProfileVerification{},
		&models.Notification{},
		&models.DeviceToken{},
	)
}

// NewStores wires every store onto one GORM connection.
func NewStores(db *gorm.DB) *repository.Stores {
	b := base{db: db}
	return &repository.Stores{
		Tx:            NewTxManager(db),
		Listings:      &ListingStore{b},
		Trips:         &TripStore{b},
		TripLocations: &TripLocationStore{b},
		Proposals:     &ProposalStore{b},
		Shipments:     &ShipmentStore{b},
		Events:        &EventStore{b},
		Proofs:        &ProofStore{b},
		Verifications: &VerificationStore{b},
		Notifications: &NotificationStore{b},
		Devices:       &DeviceStore{b},
	}
}
