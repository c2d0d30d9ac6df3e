// server/internal/store/outlets.go
package store

import (
	"context"
	"errors"
	"time"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/workflow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Outlets is the stock ledger. Every stock mutation is a single conditional
// FindOneAndUpdate so concurrent reservations against the same outlet can
// never drive currentStock negative or above capacity.
type Outlets struct {
	c *mongo.Collection
}

func NewOutlets(db *mongo.Database) *Outlets {
	return &Outlets{c: db.Collection("outlets")}
}

func (s *Outlets) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Outlet, error) {
	var outlet models.Outlet
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&outlet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &outlet, nil
}

// Reserve atomically decrements currentStock by quantity if enough stock is
// available. A plain read-then-write would oversell under concurrency.
func (s *Outlets) Reserve(ctx context.Context, id primitive.ObjectID, quantity int) error {
	filter := bson.M{"_id": id, "currentStock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"currentStock": -quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	err := s.c.FindOneAndUpdate(ctx, filter, update).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	// Either the outlet is gone or the stock check failed. Tell them apart.
	count, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return cerr
	}
	if count == 0 {
		return workflow.ErrNotFound
	}
	return workflow.ErrInsufficientStock
}

// Release returns a reserved quantity to the outlet, capped at capacity. Used
// as the compensating action for a failed request insert and when a request is
// cancelled.
func (s *Outlets) Release(ctx context.Context, id primitive.ObjectID, quantity int) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"currentStock": bson.M{"$min": bson.A{
				"$capacity",
				bson.M{"$add": bson.A{"$currentStock", quantity}},
			}},
			"updatedAt": time.Now(),
		}}},
	}
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return workflow.ErrNotFound
	}
	return err
}

// SetStock is the direct admin/manager override. The capacity bound is part of
// the filter so the check and the write are one atomic operation.
func (s *Outlets) SetStock(ctx context.Context, id primitive.ObjectID, newStock int) error {
	filter := bson.M{"_id": id, "capacity": bson.M{"$gte": newStock}}
	update := bson.M{"$set": bson.M{"currentStock": newStock, "updatedAt": time.Now()}}
	err := s.c.FindOneAndUpdate(ctx, filter, update).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	count, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return cerr
	}
	if count == 0 {
		return workflow.ErrNotFound
	}
	return workflow.ErrValidation
}
