package repository

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProposalRepository handles database operations related to proposals
type ProposalRepository struct {
	collection *mongo.Collection
}

func NewProposalRepository(db *mongo.Database) *ProposalRepository {
	return &ProposalRepository{
		collection: db.Collection("proposals"),
	}
}

// Create inserts a new proposal
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		logger.Log.WithError(err).Error("Failed to insert proposal")
		return err
	}
	logger.Log.WithFields(map[string]interface{}{
		"proposal_id": p.ID,
		"listing_id":  p.ListingID,
	}).Info("Proposal created successfully")
	return nil
}

// GetByID fetches a proposal by its ID
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	var p models.Proposal
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListForUser returns the proposals a user takes part in, newest first
func (r *ProposalRepository) ListForUser(ctx context.Context, userID, listingID string) ([]models.Proposal, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"driver_id": userID},
			bson.M{"shipper_id": userID},
		},
	}
	if listingID != "" {
		filter["listing_id"] = listingID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to fetch proposals")
		return nil, err
	}
	defer cursor.Close(ctx)

	proposals := []models.Proposal{}
	if err := cursor.All(ctx, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// CompareAndSetStatus updates the status only if it still equals from
func (r *ProposalRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.ProposalStatus) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RejectPendingExcept rejects the other pending proposals of a listing
func (r *ProposalRepository) RejectPendingExcept(ctx context.Context, listingID, exceptID string) ([]models.Proposal, error) {
	filter := bson.M{
		"listing_id": listingID,
		"status":     models.ProposalPending,
		"_id":        bson.M{"$ne": exceptID},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var rejected []models.Proposal
	if err := cursor.All(ctx, &rejected); err != nil {
		return nil, err
	}
	if len(rejected) == 0 {
		return nil, nil
	}

	ids := make(bson.A, 0, len(rejected))
	for _, p := range rejected {
		ids = append(ids, p.ID)
	}
	ts := now()
	_, err = r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.ProposalPending},
		bson.M{"$set": bson.M{"status": models.ProposalRejected, "updated_at": ts}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("listing_id", listingID).Error("Failed to reject competing proposals")
		return nil, err
	}
	for i := range rejected {
		rejected[i].Status = models.ProposalRejected
		rejected[i].UpdatedAt = ts
	}
	return rejected, nil
}

// ExistsForTrip reports whether shipperID holds a proposal tied to tripID
func (r *ProposalRepository) ExistsForTrip(ctx context.Context, tripID, shipperID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"trip_id": tripID, "shipper_id": shipperID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
