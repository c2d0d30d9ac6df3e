// server/internal/workflow/stock.go
package workflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Stock wraps the direct ledger override with authorization. Reservation and
// release stay inside the request lifecycle; this is the manager/admin
// "set the shelf count" operation.
type Stock struct {
	outlets OutletStore
	log     *zap.Logger
}

func NewStock(outlets OutletStore, log *zap.Logger) *Stock {
	return &Stock{outlets: outlets, log: log}
}

// Set overrides an outlet's current stock. Rejects negative values; the
// capacity upper bound is enforced atomically by the ledger itself.
func (m *Stock) Set(ctx context.Context, actor Actor, outletID primitive.ObjectID, newStock int) error {
	if newStock < 0 {
		return validationf("stock cannot be negative")
	}

	outlet, err := m.outlets.GetByID(ctx, outletID)
	if err != nil {
		return err
	}
	if err := CanActOnOutlet(actor, outlet.Manager); err != nil {
		return err
	}

	if err := m.outlets.SetStock(ctx, outletID, newStock); err != nil {
		return err
	}
	m.log.Info("outlet stock updated",
		zap.String("outletId", outletID.Hex()),
		zap.Int("newStock", newStock))
	return nil
}
