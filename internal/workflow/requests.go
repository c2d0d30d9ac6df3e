// server/internal/workflow/requests.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// tokenAttempts bounds the retry loop for token generation. Uniqueness itself
// is enforced by the storage index; the loop only resolves collisions.
const tokenAttempts = 5

// legal prior states per target request status. pending is the creation state
// and never a transition target; delivered and cancelled are terminal.
var requestTransitions = map[string][]string{
	models.RequestProcessing: {models.RequestPending},
	models.RequestDelivered:  {models.RequestProcessing},
	models.RequestCancelled:  {models.RequestPending, models.RequestProcessing},
}

// Requests is the request lifecycle manager.
type Requests struct {
	outlets    OutletStore
	requests   RequestStore
	users      UserStore
	dispatcher notify.Dispatcher
	log        *zap.Logger
}

func NewRequests(outlets OutletStore, requests RequestStore, users UserStore, dispatcher notify.Dispatcher, log *zap.Logger) *Requests {
	return &Requests{
		outlets:    outlets,
		requests:   requests,
		users:      users,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Create validates the input, reserves stock and persists the request as an
// atomic pair: a failed insert releases the reservation, a failed reservation
// persists nothing. The returned warning is non-empty when the committed
// request could not be announced.
func (m *Requests) Create(ctx context.Context, consumerID, outletID primitive.ObjectID, quantity int, address string) (*models.Request, string, error) {
	if quantity < 1 || quantity > 2 {
		return nil, "", validationf("quantity must be 1 or 2")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, "", validationf("address is required")
	}

	outlet, err := m.outlets.GetByID(ctx, outletID)
	if err != nil {
		return nil, "", err
	}

	if err := m.outlets.Reserve(ctx, outletID, quantity); err != nil {
		return nil, "", err
	}

	request, err := m.insertWithFreshToken(ctx, consumerID, outletID, quantity, address)
	if err != nil {
		// Compensate the reservation so no stock is held without a request.
		if rerr := m.outlets.Release(ctx, outletID, quantity); rerr != nil {
			m.log.Error("failed to release stock after aborted request create",
				zap.String("outletId", outletID.Hex()), zap.Error(rerr))
		}
		return nil, "", err
	}

	event := notify.Event{
		Kind:    notify.KindRequestCreated,
		Request: request,
		Outlet:  outlet,
	}
	if consumer, cerr := m.users.GetByID(ctx, consumerID); cerr == nil {
		event.Consumer = consumer
	}
	if !outlet.Manager.IsZero() {
		if manager, merr := m.users.GetByID(ctx, outlet.Manager); merr == nil {
			event.Manager = manager
		}
	}
	warn := m.dispatch(ctx, event)

	return request, warn, nil
}

func (m *Requests) insertWithFreshToken(ctx context.Context, consumerID, outletID primitive.ObjectID, quantity int, address string) (*models.Request, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		now := time.Now()
		request := &models.Request{
			ConsumerID: consumerID,
			OutletID:   outletID,
			Token:      newToken(),
			Quantity:   quantity,
			Address:    address,
			Status:     models.RequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err := m.requests.Insert(ctx, request)
		if err == nil {
			return request, nil
		}
		if !errors.Is(err, ErrDuplicateToken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not generate a unique request token after %d attempts", tokenAttempts)
}

func newToken() string {
	return fmt.Sprintf("TKN-%06d", 100000+rand.IntN(900000))
}

// Transition moves a request to newStatus. Only the manager assigned to the
// request's outlet or an admin may transition; legality rides in the storage
// filter so a concurrent transition cannot bypass the state machine.
func (m *Requests) Transition(ctx context.Context, actor Actor, requestID primitive.ObjectID, newStatus string) (*models.Request, string, error) {
	if !models.ValidRequestStatus(newStatus) {
		return nil, "", validationf("unknown status %q", newStatus)
	}
	allowedFrom, ok := requestTransitions[newStatus]
	if !ok {
		return nil, "", ErrInvalidTransition
	}

	request, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	outlet, err := m.outlets.GetByID(ctx, request.OutletID)
	if err != nil {
		return nil, "", err
	}
	if err := CanActOnOutlet(actor, outlet.Manager); err != nil {
		return nil, "", err
	}

	updated, err := m.requests.UpdateStatus(ctx, requestID, allowedFrom, newStatus)
	if err != nil {
		return nil, "", err
	}

	// Cancellation releases the reservation back to the outlet; every other
	// transition keeps it. Documented policy, not a storage hook.
	if newStatus == models.RequestCancelled {
		if rerr := m.outlets.Release(ctx, updated.OutletID, updated.Quantity); rerr != nil {
			m.log.Error("failed to release stock for cancelled request",
				zap.String("requestId", requestID.Hex()), zap.Error(rerr))
		}
	}

	event := notify.Event{
		Kind:      notify.KindRequestStatusChanged,
		Request:   updated,
		Outlet:    outlet,
		NewStatus: newStatus,
	}
	if consumer, cerr := m.users.GetByID(ctx, updated.ConsumerID); cerr == nil {
		event.Consumer = consumer
	}
	warn := m.dispatch(ctx, event)

	return updated, warn, nil
}

// LookupByToken resolves a token for its owning consumer only.
func (m *Requests) LookupByToken(ctx context.Context, consumerID primitive.ObjectID, token string) (*models.Request, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validationf("token is required")
	}
	return m.requests.GetByToken(ctx, consumerID, token)
}

func (m *Requests) dispatch(ctx context.Context, event notify.Event) string {
	if m.dispatcher == nil {
		return ""
	}
	if err := m.dispatcher.Dispatch(ctx, event); err != nil {
		m.log.Warn("notification dispatch failed",
			zap.String("kind", string(event.Kind)), zap.Error(err))
		return "notification dispatch failed"
	}
	return ""
}
