package repository

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{
		collection: db.Collection("trips"),
	}
}

// Create inserts a new trip
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	if _, err := r.collection.InsertOne(ctx, trip); err != nil {
		logger.Log.WithError(err).Error("Failed to insert trip")
		return err
	}
	logger.Log.WithField("trip_id", trip.ID).Info("Trip created successfully")
	return nil
}

// GetByID fetches a trip by its ID
func (r *TripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip); err != nil {
		return nil, notFound(err)
	}
	return &trip, nil
}

// ListByDriver returns a driver's trips, newest first
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string, limit int) ([]models.Trip, error) {
	return r.find(ctx, bson.M{"driver_id": driverID}, limit)
}

// ListRecent returns the newest trips of every driver except excludeDriverID
func (r *TripRepository) ListRecent(ctx context.Context, excludeDriverID string, limit int) ([]models.Trip, error) {
	return r.find(ctx, bson.M{"driver_id": bson.M{"$ne": excludeDriverID}}, limit)
}

func (r *TripRepository) find(ctx context.Context, filter bson.M, limit int) ([]models.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch trips")
		return nil, err
	}
	defer cursor.Close(ctx)

	trips := []models.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// Update replaces the stored trip
func (r *TripRepository) Update(ctx context.Context, trip *models.Trip) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": trip.ID}, trip)
	if err != nil {
		logger.Log.WithError(err).WithField("trip_id", trip.ID).Error("Failed to update trip")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a trip
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TripLocationRepository keeps the last known position of each trip
type TripLocationRepository struct {
	collection *mongo.Collection
}

func NewTripLocationRepository(db *mongo.Database) *TripLocationRepository {
	return &TripLocationRepository{
		collection: db.Collection("trip_locations"),
	}
}

// Upsert stores the position, replacing the previous one for the trip
func (r *TripLocationRepository) Upsert(ctx context.Context, loc *models.TripLocation) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": loc.TripID}, loc, options.Replace().SetUpsert(true))
	return err
}

// Get returns the last position of a trip
func (r *TripLocationRepository) Get(ctx context.Context, tripID string) (*models.TripLocation, error) {
	var loc models.TripLocation
	if err := r.collection.FindOne(ctx, bson.M{"_id": tripID}).Decode(&loc); err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}
