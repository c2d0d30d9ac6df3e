// server/internal/store/deliveries.go
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

type Deliveries struct {
	c *mongo.Collection
}

func NewDeliveries(db *mongo.Database) *Deliveries {
	return &Deliveries{c: db.Collection("deliveries")}
}

// Insert persists a new delivery. The unique (outletId, requestId) index makes
// a second delivery for the same request at the same outlet fail with
// ErrDuplicateDelivery.
func (s *Deliveries) Insert(ctx context.Context, delivery *models.Delivery) error {
	result, err := s.c.InsertOne(ctx, delivery)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return workflow.ErrDuplicateDelivery
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		delivery.ID = oid
	}
	return nil
}

func (s *Deliveries) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&delivery)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

// UpdateStatus moves a delivery out of the scheduled state. Both terminal
// transitions go through here; confirmedBy is recorded only when delivering.
func (s *Deliveries) UpdateStatus(ctx context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string, confirmedBy primitive.ObjectID) (*models.Delivery, error) {
	set := bson.M{"status": newStatus, "updatedAt": time.Now()}
	if !confirmedBy.IsZero() {
		set["confirmedBy"] = confirmedBy
	}
	filter := bson.M{"_id": id, "status": bson.M{"$in": allowedFrom}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var delivery models.Delivery
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&delivery)
	if err == nil {
		return &delivery, nil
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

// ListScheduledByOutlet lists the open deliveries of an outlet.
func (s *Deliveries) ListScheduledByOutlet(ctx context.Context, outletID primitive.ObjectID) ([]models.Delivery, error) {
	filter := bson.M{"outletId": outletID, "status": models.DeliveryScheduled}
	cursor, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deliveries []models.Delivery
	if err = cursor.All(ctx, &deliveries); err != nil {
		return nil, err
	}
	if deliveries == nil {
		deliveries = []models.Delivery{}
	}
	return deliveries, nil
}
