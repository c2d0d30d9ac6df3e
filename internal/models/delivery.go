// server/internal/models/delivery.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DeliveryScheduled = "scheduled"
	DeliveryDelivered = "delivered"
	DeliveryCanceled  = "canceled"
)

// Delivery is the scheduled logistics event satisfying a request. RequestID is
// mandatory and (outletId, requestId) carries a unique index: at most one
// delivery per request at an outlet.
type Delivery struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OutletID      primitive.ObjectID `bson:"outletId" json:"outletId"`
	RequestID     primitive.ObjectID `bson:"requestId" json:"requestId"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	ConfirmedBy   primitive.ObjectID `bson:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func ValidDeliveryStatus(s string) bool {
	switch s {
	case DeliveryScheduled, DeliveryDelivered, DeliveryCanceled:
		return true
	}
	return false
}
