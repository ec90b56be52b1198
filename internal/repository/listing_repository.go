package repository

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListingRepository handles database operations related to listings
type ListingRepository struct {
	collection *mongo.Collection
}

// NewListingRepository creates a new instance of ListingRepository
func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection("listings"),
	}
}

// Create inserts a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if _, err := r.collection.InsertOne(ctx, listing); err != nil {
		logger.Log.WithError(err).Error("Failed to insert listing")
		return err
	}
	logger.Log.WithField("listing_id", listing.ID).Info("Listing created successfully")
	return nil
}

// GetByID fetches a listing by its ID
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		return nil, notFound(err)
	}
	return &listing, nil
}

// List returns one page of listings, newest first, and the total match count
func (r *ListingRepository) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, int64, error) {
	filter := bson.M{}
	if f.ShipperID != "" {
		filter["shipper_id"] = f.ShipperID
	}
	if f.ExcludeShipperID != "" {
		filter["shipper_id"] = bson.M{"$ne": f.ExcludeShipperID}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to count listings")
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch listings")
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ListInBox returns active listings whose destination lies inside box
func (r *ListingRepository) ListInBox(ctx context.Context, box models.BoundingBox, limit int) ([]models.Listing, error) {
	filter := bson.M{
		"status":          models.ListingActive,
		"destination_lat": bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"destination_lng": bson.M{"$gte": box.MinLng, "$lte": box.MaxLng},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch listings for map")
		return nil, err
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func editableFilter(id string) bson.M {
	return bson.M{"_id": id, "status": bson.M{"$in": models.EditableStatuses}}
}

// Update sets the editable fields of a listing that is still unmatched
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	res, err := r.collection.UpdateOne(ctx,
		editableFilter(listing.ID),
		bson.M{"$set": listing.EditableFields()},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("listing_id", listing.ID).Error("Failed to update listing")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// SetStatus changes only the listing status
func (r *ListingRepository) SetStatus(ctx context.Context, id string, status models.ListingStatus) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchActive bumps updated_at while the listing is active
func (r *ListingRepository) TouchActive(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ListingActive},
		bson.M{"$set": bson.M{"updated_at": now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// Delete removes a listing that is still unmatched
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, editableFilter(id))
	if err != nil {
		logger.Log.WithError(err).WithField("listing_id", id).Error("Failed to delete listing")
		return err
	}
	if res.DeletedCount == 0 {
		return ErrStateChanged
	}
	return nil
}
