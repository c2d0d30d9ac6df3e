// server/internal/workflow/authz.go
package workflow

import (
	"gasbygas-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the verified identity performing a mutating call. The id/role pair
// comes from the JWT middleware; the workflow trusts it and never re-checks
// credentials.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// CanActOnOutlet decides whether an actor may mutate requests and deliveries
// belonging to the outlet managed by managerID. Admins may act anywhere, an
// outlet manager only on their own outlet, consumers never.
func CanActOnOutlet(actor Actor, managerID primitive.ObjectID) error {
	if actor.ID.IsZero() || actor.Role == "" {
		return ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleOutletManager:
		if !managerID.IsZero() && actor.ID == managerID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
