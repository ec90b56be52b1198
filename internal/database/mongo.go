package database

import (
	"context"
	"time"

	"github.com/colib/colib-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens and pings a MongoDB client.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Log.Info("Connected to MongoDB")
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. The unique index
// on shipments.listing_id is what settles two concurrent accepts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"shipments": {
			{Keys: bson.D{{Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "driver_id", Value: 1}}},
			{Keys: bson.D{{Key: "shipper_id", Value: 1}}},
		},
		"listings": {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "shipper_id", Value: 1}}},
			{Keys: bson.D{{Key: "destination_lat", Value: 1}, {Key: "destination_lng", Value: 1}}},
		},
		"proposals": {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "driver_id", Value: 1}}},
			{Keys: bson.D{{Key: "shipper_id", Value: 1}}},
		},
		"trips": {
			{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"shipment_events": {
			{Keys: bson.D{{Key: "shipment_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"device_tokens": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			logger.Log.WithError(err).WithField("collection", coll).Error("Failed to create indexes")
			return err
		}
	}
	return nil
}
