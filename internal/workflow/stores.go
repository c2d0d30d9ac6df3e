// server/internal/workflow/stores.go
package workflow

import (
	"context"

	"gasbygas-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage contracts the workflow needs. The Mongo implementations live in
// internal/store; tests substitute in-memory stubs.

// OutletStore is the stock ledger. Reserve and SetStock must be atomic
// check-and-write operations: under concurrent calls against one outlet the
// stock may never go negative or above capacity.
type OutletStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Outlet, error)
	Reserve(ctx context.Context, id primitive.ObjectID, quantity int) error
	Release(ctx context.Context, id primitive.ObjectID, quantity int) error
	SetStock(ctx context.Context, id primitive.ObjectID, newStock int) error
}

type RequestStore interface {
	Insert(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	GetByToken(ctx context.Context, consumerID primitive.ObjectID, token string) (*models.Request, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string) (*models.Request, error)
}

type DeliveryStore interface {
	Insert(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string, confirmedBy primitive.ObjectID) (*models.Delivery, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
