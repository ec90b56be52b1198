package repository

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ShipmentRepository handles database operations related to shipments.
// shipments.listing_id carries a unique index (see database.EnsureIndexes).
type ShipmentRepository struct {
	collection *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{
		collection: db.Collection("shipments"),
	}
}

// Create inserts a shipment, returning ErrDuplicateKey if the listing already has one
func (r *ShipmentRepository) Create(ctx context.Context, s *models.Shipment) error {
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return duplicate(err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"shipment_id": s.ID,
		"listing_id":  s.ListingID,
	}).Info("Shipment created successfully")
	return nil
}

// GetByID fetches a shipment by its ID
func (r *ShipmentRepository) GetByID(ctx context.Context, id string) (*models.Shipment, error) {
	var s models.Shipment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindByListing fetches the shipment of a listing
func (r *ShipmentRepository) FindByListing(ctx context.Context, listingID string) (*models.Shipment, error) {
	var s models.Shipment
	if err := r.collection.FindOne(ctx, bson.M{"listing_id": listingID}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListForUser returns the shipments a user takes part in, newest first
func (r *ShipmentRepository) ListForUser(ctx context.Context, userID string) ([]models.Shipment, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"driver_id": userID},
			bson.M{"shipper_id": userID},
		},
	}
	return r.find(ctx, filter)
}

// ListByStatuses returns every shipment whose status is one of statuses
func (r *ShipmentRepository) ListByStatuses(ctx context.Context, statuses []models.ShipmentStatus) ([]models.Shipment, error) {
	return r.find(ctx, bson.M{"status": bson.M{"$in": statuses}})
}

func (r *ShipmentRepository) find(ctx context.Context, filter bson.M) ([]models.Shipment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch shipments")
		return nil, err
	}
	defer cursor.Close(ctx)

	shipments := []models.Shipment{}
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, err
	}
	return shipments, nil
}

// CompareAndSetStatus updates the status only if it still equals from
func (r *ShipmentRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.ShipmentStatus) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ShipmentEventRepository stores the append-only shipment audit log
type ShipmentEventRepository struct {
	collection *mongo.Collection
}

func NewShipmentEventRepository(db *mongo.Database) *ShipmentEventRepository {
	return &ShipmentEventRepository{
		collection: db.Collection("shipment_events"),
	}
}

// Append inserts an event
func (r *ShipmentEventRepository) Append(ctx context.Context, e *models.ShipmentEvent) error {
	_, err := r.collection.InsertOne(ctx, e)
	return err
}

// ListByShipment returns a shipment's events, oldest first
func (r *ShipmentEventRepository) ListByShipment(ctx context.Context, shipmentID string) ([]models.ShipmentEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shipment_id": shipmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.ShipmentEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type ProofRepository struct {
	collection *mongo.Collection
}

func NewProofRepository(db *mongo.Database) *ProofRepository {
	return &ProofRepository{
		collection: db.Collection("proofs"),
	}
}

// Create inserts a proof
func (r *ProofRepository) Create(ctx context.Context, p *models.Proof) error {
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

// ListByShipment returns a shipment's proofs, oldest first
func (r *ProofRepository) ListByShipment(ctx context.Context, shipmentID string) ([]models.Proof, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shipment_id": shipmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	proofs := []models.Proof{}
	if err := cursor.All(ctx, &proofs); err != nil {
		return nil, err
	}
	return proofs, nil
}
