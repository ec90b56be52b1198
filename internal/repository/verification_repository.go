package repository

import (
	"context"

	"github.com/colib/colib-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VerificationRepository stores one profile verification per user, keyed by user ID
type VerificationRepository struct {
	collection *mongo.Collection
}

func NewVerificationRepository(db *mongo.Database) *VerificationRepository {
	return &VerificationRepository{
		collection: db.Collection("profile_verifications"),
	}
}

// Get fetches the verification record of a user
func (r *VerificationRepository) Get(ctx context.Context, userID string) (*models.ProfileVerification, error) {
	var v models.ProfileVerification
	if err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&v); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Upsert creates or replaces the verification record of a user
func (r *VerificationRepository) Upsert(ctx context.Context, v *models.ProfileVerification) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": v.UserID}, v, options.Replace().SetUpsert(true))
	return err
}

// ListByStatus returns verification records in a status, oldest first
func (r *VerificationRepository) ListByStatus(ctx context.Context, status models.VerificationStatus, limit int) ([]models.ProfileVerification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.ProfileVerification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
