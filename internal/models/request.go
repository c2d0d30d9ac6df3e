// server/internal/models/request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending    = "pending"
	RequestProcessing = "processing"
	RequestDelivered  = "delivered"
	RequestCancelled  = "cancelled"
)

// Request is a consumer's claim on cylinder stock at an outlet. The token is
// the human-shareable identifier (TKN-######), unique across all requests.
type Request struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConsumerID primitive.ObjectID `bson:"consumerId" json:"consumerId"`
	OutletID   primitive.ObjectID `bson:"outletId" json:"outletId"`
	Token      string             `bson:"token" json:"token"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Address    string             `bson:"address" json:"address"`
	Status     string             `bson:"status" json:"status"`
	PickupDate *time.Time         `bson:"pickupDate,omitempty" json:"pickupDate,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func ValidRequestStatus(s string) bool {
	switch s {
	case RequestPending, RequestProcessing, RequestDelivered, RequestCancelled:
		return true
	}
	return false
}
