// server/internal/store/indexes.go
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the workflow relies on: request
// tokens are globally unique, a request has at most one delivery per outlet,
// and user email/nic identify an account.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("requests").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("deliveries").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "outletId", Value: 1}, {Key: "requestId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "nic", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}
