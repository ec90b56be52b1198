package repository

import "go.mongodb.org/mongo-driver/mongo"

// NewMongoStores wires every store onto one MongoDB database.
func NewMongoStores(client *mongo.Client, db *mongo.Database) *Stores {
	return &Stores{
		Tx:            NewMongoTxManager(client),
		Listings:      NewListingRepository(db),
		Trips:         NewTripRepository(db),
		TripLocations: NewTripLocationRepository(db),
		Proposals:     NewProposalRepository(db),
		Shipments:     NewShipmentRepository(db),
		Events:        NewShipmentEventRepository(db),
		Proofs:        NewProofRepository(db),
		Verifications: NewVerificationRepository(db),
		Notifications: NewNotificationRepository(db),
		Devices:       NewDeviceRepository(db),
	}
}

var (
	_ ListingStore       = (*ListingRepository)(nil)
	_ TripStore          = (*TripRepository)(nil)
	_ TripLocationStore  = (*TripLocationRepository)(nil)
	_ ProposalStore      = (*ProposalRepository)(nil)
	_ ShipmentStore      = (*ShipmentRepository)(nil)
	_ ShipmentEventStore = (*ShipmentEventRepository)(nil)
	_ ProofStore         = (*ProofRepository)(nil)
	_ VerificationStore  = (*VerificationRepository)(nil)
	_ NotificationStore  = (*NotificationRepository)(nil)
	_ DeviceStore        = (*DeviceRepository)(nil)
	_ TxManager          = (*MongoTxManager)(nil)
)
