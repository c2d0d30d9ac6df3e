// server/internal/store/requests.go
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Requests struct {
	c *mongo.Collection
}

func NewRequests(db *mongo.Database) *Requests {
	return &Requests{c: db.Collection("requests")}
}

// Insert persists a new request. The unique index on token turns a generation
// collision into ErrDuplicateToken so the caller can retry with a fresh token.
func (s *Requests) Insert(ctx context.Context, request *models.Request) error {
	result, err := s.c.InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return workflow.ErrDuplicateToken
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		request.ID = oid
	}
	return nil
}

func (s *Requests) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var request models.Request
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// GetByToken resolves a token for the consumer that owns it only.
func (s *Requests) GetByToken(ctx context.Context, consumerID primitive.ObjectID, token string) (*models.Request, error) {
	var request models.Request
	err := s.c.FindOne(ctx, bson.M{"consumerId": consumerID, "token": token}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// UpdateStatus moves a request to newStatus only if its current status is in
// allowedFrom. The legality check rides in the filter, so two managers racing
// on the same request cannot both win an illegal transition.
func (s *Requests) UpdateStatus(ctx context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string) (*models.Request, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": allowedFrom}}
	update := bson.M{"$set": bson.M{"status": newStatus, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var request models.Request
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&request)
	if err == nil {
		return &request, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	count, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, cerr
	}
	if count == 0 {
		return nil, workflow.ErrNotFound
	}
	return nil, workflow.ErrInvalidTransition
}

// CountOpen reports how many pending/processing requests still reference the
// outlet. Outlet deletion is rejected while this is non-zero.
func (s *Requests) CountOpen(ctx context.Context, outletID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"outletId": outletID,
		"status":   bson.M{"$in": bson.A{models.RequestPending, models.RequestProcessing}},
	}
	return s.c.CountDocuments(ctx, filter)
}
