// server/internal/notify/notify.go
package notify

import (
	"context"
	"fmt"

	"gasbygas-api-server/internal/models"
)

type Kind string

const (
	KindRequestCreated       Kind = "request_created"
	KindRequestStatusChanged Kind = "request_status_changed"
	KindDeliveryScheduled    Kind = "delivery_scheduled"
	KindDeliveryConfirmed    Kind = "delivery_confirmed"
	KindDeliveryCanceled     Kind = "delivery_canceled"
	KindManagerAssigned      Kind = "manager_assigned"
)

// Event is a tagged workflow transition. The workflow fills in whichever
// snapshots the event kind needs; nil participants simply get no message.
type Event struct {
	Kind      Kind
	Consumer  *models.User
	Manager   *models.User
	Outlet    *models.Outlet
	Request   *models.Request
	Delivery  *models.Delivery
	NewStatus string
}

// Message is one outbound notification, addressed to a single recipient.
type Message struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	Payload any    `json:"payload,omitempty"`

	// UserID routes the websocket copy; not part of the wire payload.
	UserID string `json:"-"`
}

// Dispatcher resolves an event to its outbound messages and delivers them.
// Delivery is best effort: a failure must never roll back the transition that
// triggered the event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Messages maps an event to the messages it produces: one to the outlet
// manager, one to the consumer, or both, depending on the kind.
func Messages(event Event) []Message {
	var msgs []Message

	toManager := func(subject, text string) {
		if event.Manager == nil || event.Manager.Email == "" {
			return
		}
		msgs = append(msgs, Message{
			Kind:    event.Kind,
			To:      event.Manager.Email,
			Subject: subject,
			Text:    text,
			Payload: payload(event),
			UserID:  event.Manager.ID.Hex(),
		})
	}
	toConsumer := func(subject, text string) {
		if event.Consumer == nil || event.Consumer.Email == "" {
			return
		}
		msgs = append(msgs, Message{
			Kind:    event.Kind,
			To:      event.Consumer.Email,
			Subject: subject,
			Text:    text,
			Payload: payload(event),
			UserID:  event.Consumer.ID.Hex(),
		})
	}

	switch event.Kind {
	case KindRequestCreated:
		consumerName := "a consumer"
		if event.Consumer != nil {
			consumerName = event.Consumer.Name
		}
		toManager("New Gas Request Received",
			fmt.Sprintf("New request %s from %s for %d cylinder(s)",
				event.Request.Token, consumerName, event.Request.Quantity))
		toConsumer("Gas Request Confirmation",
			fmt.Sprintf("Your gas request has been received. Track it with token %s", event.Request.Token))
	case KindRequestStatusChanged:
		toConsumer(fmt.Sprintf("Gas Request Status Update - %s", event.NewStatus),
			fmt.Sprintf("Your request (Token: %s) status has been updated to: %s",
				event.Request.Token, event.NewStatus))
	case KindDeliveryScheduled:
		text := fmt.Sprintf("A delivery for request %s has been scheduled for %s",
			event.Request.Token, event.Delivery.ScheduledDate.Format("2006-01-02 15:04"))
		toManager("Gas Delivery Scheduled", text)
		toConsumer("Gas Delivery Scheduled", text)
	case KindDeliveryConfirmed:
		text := fmt.Sprintf("The delivery for request %s has been completed", event.Request.Token)
		toManager("Gas Delivery Confirmed", text)
		toConsumer("Gas Delivery Confirmed", text)
	case KindDeliveryCanceled:
		text := fmt.Sprintf("The delivery for request %s has been canceled", event.Request.Token)
		toManager("Gas Delivery Canceled", text)
		toConsumer("Gas Delivery Canceled", text)
	case KindManagerAssigned:
		toManager("Outlet Manager Assignment Notification",
			fmt.Sprintf("You've been assigned to manage %s (%s, %s)",
				event.Outlet.Name, event.Outlet.Location, event.Outlet.District))
	}

	return msgs
}

func payload(event Event) any {
	p := map[string]any{"kind": event.Kind}
	if event.Request != nil {
		p["request"] = event.Request
	}
	if event.Delivery != nil {
		p["delivery"] = event.Delivery
	}
	if event.Outlet != nil {
		p["outlet"] = map[string]any{
			"id":       event.Outlet.ID,
			"name":     event.Outlet.Name,
			"location": event.Outlet.Location,
			"district": event.Outlet.District,
		}
	}
	if event.NewStatus != "" {
		p["newStatus"] = event.NewStatus
	}
	return p
}
