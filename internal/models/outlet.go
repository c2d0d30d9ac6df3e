// server/internal/models/outlet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outlet is a physical distribution point holding cylinder stock.
// Invariant: 0 <= currentStock <= capacity, enforced by the stock ledger.
type Outlet struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Location     string             `bson:"location" json:"location"`
	District     string             `bson:"district" json:"district"`
	Contact      string             `bson:"contact" json:"contact"`
	Manager      primitive.ObjectID `bson:"manager,omitempty" json:"manager,omitempty"`
	Capacity     int                `bson:"capacity" json:"capacity"`
	CurrentStock int                `bson:"currentStock" json:"currentStock"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
