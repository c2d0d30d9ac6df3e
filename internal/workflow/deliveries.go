// server/internal/workflow/deliveries.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Deliveries is the delivery lifecycle manager. Both transitions out of
// scheduled (delivered, canceled) are terminal.
type Deliveries struct {
	outlets    OutletStore
	requests   RequestStore
	deliveries DeliveryStore
	users      UserStore
	dispatcher notify.Dispatcher
	log        *zap.Logger
}

func NewDeliveries(outlets OutletStore, requests RequestStore, deliveries DeliveryStore, users UserStore, dispatcher notify.Dispatcher, log *zap.Logger) *Deliveries {
	return &Deliveries{
		outlets:    outlets,
		requests:   requests,
		deliveries: deliveries,
		users:      users,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Schedule creates a delivery for an existing request at the actor's outlet.
// A past scheduledDate is accepted but flagged as a warning.
func (m *Deliveries) Schedule(ctx context.Context, actor Actor, outletID, requestID primitive.ObjectID, scheduledDate time.Time) (*models.Delivery, string, error) {
	if scheduledDate.IsZero() {
		return nil, "", validationf("scheduledDate is required")
	}

	outlet, err := m.outlets.GetByID(ctx, outletID)
	if err != nil {
		return nil, "", err
	}
	if err := CanActOnOutlet(actor, outlet.Manager); err != nil {
		return nil, "", err
	}

	request, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if request.OutletID != outletID {
		return nil, "", validationf("request %s does not belong to this outlet", requestID.Hex())
	}

	var warn string
	if scheduledDate.Before(time.Now()) {
		warn = "scheduledDate is in the past"
		m.log.Warn("delivery scheduled in the past",
			zap.String("requestId", requestID.Hex()),
			zap.Time("scheduledDate", scheduledDate))
	}

	now := time.Now()
	delivery := &models.Delivery{
		OutletID:      outletID,
		RequestID:     requestID,
		ScheduledDate: scheduledDate,
		Status:        models.DeliveryScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.deliveries.Insert(ctx, delivery); err != nil {
		return nil, "", err
	}

	consumer, manager := m.participants(ctx, outlet, request)
	if w := m.dispatch(ctx, notify.Event{
		Kind:     notify.KindDeliveryScheduled,
		Request:  request,
		Delivery: delivery,
		Outlet:   outlet,
		Consumer: consumer,
		Manager:  manager,
	}); w != "" {
		warn = w
	}

	return delivery, warn, nil
}

// Confirm completes a scheduled delivery, recording who confirmed it. The
// delivery's request and consumer must be resolvable; without them there is
// no one to hand the cylinders to.
func (m *Deliveries) Confirm(ctx context.Context, actor Actor, deliveryID primitive.ObjectID) (*models.Delivery, string, error) {
	delivery, err := m.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, "", err
	}
	outlet, err := m.outlets.GetByID(ctx, delivery.OutletID)
	if err != nil {
		return nil, "", err
	}
	if err := CanActOnOutlet(actor, outlet.Manager); err != nil {
		return nil, "", err
	}

	request, err := m.requests.GetByID(ctx, delivery.RequestID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing request information", ErrInvalidState)
	}
	consumer, err := m.users.GetByID(ctx, request.ConsumerID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing consumer information", ErrInvalidState)
	}

	updated, err := m.deliveries.UpdateStatus(ctx, deliveryID,
		[]string{models.DeliveryScheduled}, models.DeliveryDelivered, actor.ID)
	if err != nil {
		return nil, "", err
	}

	_, manager := m.participants(ctx, outlet, request)
	warn := m.dispatch(ctx, notify.Event{
		Kind:     notify.KindDeliveryConfirmed,
		Request:  request,
		Delivery: updated,
		Outlet:   outlet,
		Consumer: consumer,
		Manager:  manager,
	})

	return updated, warn, nil
}

// UpdateStatus is the generalized transition; delivered delegates to Confirm
// so confirmedBy is always recorded. Cancelling a delivery does not touch the
// outlet stock: the request it serves keeps its reservation.
func (m *Deliveries) UpdateStatus(ctx context.Context, actor Actor, deliveryID primitive.ObjectID, newStatus string) (*models.Delivery, string, error) {
	if !models.ValidDeliveryStatus(newStatus) {
		return nil, "", validationf("unknown status %q", newStatus)
	}
	if newStatus == models.DeliveryDelivered {
		return m.Confirm(ctx, actor, deliveryID)
	}
	if newStatus == models.DeliveryScheduled {
		return nil, "", ErrInvalidTransition
	}

	delivery, err := m.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, "", err
	}
	outlet, err := m.outlets.GetByID(ctx, delivery.OutletID)
	if err != nil {
		return nil, "", err
	}
	if err := CanActOnOutlet(actor, outlet.Manager); err != nil {
		return nil, "", err
	}

	updated, err := m.deliveries.UpdateStatus(ctx, deliveryID,
		[]string{models.DeliveryScheduled}, newStatus, primitive.NilObjectID)
	if err != nil {
		return nil, "", err
	}

	event := notify.Event{
		Kind:      notify.KindDeliveryCanceled,
		Delivery:  updated,
		Outlet:    outlet,
		NewStatus: newStatus,
	}
	if request, rerr := m.requests.GetByID(ctx, updated.RequestID); rerr == nil {
		event.Request = request
		event.Consumer, event.Manager = m.participants(ctx, outlet, request)
	}
	warn := m.dispatch(ctx, event)

	return updated, warn, nil
}

func (m *Deliveries) participants(ctx context.Context, outlet *models.Outlet, request *models.Request) (consumer, manager *models.User) {
	if c, err := m.users.GetByID(ctx, request.ConsumerID); err == nil {
		consumer = c
	}
	if !outlet.Manager.IsZero() {
		if u, err := m.users.GetByID(ctx, outlet.Manager); err == nil {
			manager = u
		}
	}
	return consumer, manager
}

func (m *Deliveries) dispatch(ctx context.Context, event notify.Event) string {
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
