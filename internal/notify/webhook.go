// server/internal/notify/webhook.go
package notify

import (
	"context"
	"fmt"
	"time"

	"gasbygas-api-server/internal/socket"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dispatchTimeout = 5 * time.Second

// WebhookDispatcher delivers messages to the mail relay webhook and mirrors
// them to connected websocket clients. It is constructed once at startup and
// injected; there is no package-level transporter.
type WebhookDispatcher struct {
	client     *resty.Client
	webhookURL string
	from       string
	hub        *socket.Hub
	log        *zap.Logger
}

func NewWebhookDispatcher(webhookURL, from string, hub *socket.Hub, log *zap.Logger) *WebhookDispatcher {
	client := resty.New().
		SetTimeout(dispatchTimeout).
		SetHeader("Content-Type", "application/json")
	return &WebhookDispatcher{
		client:     client,
		webhookURL: webhookURL,
		from:       from,
		hub:        hub,
		log:        log,
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Dispatch sends every message the event resolves to. It is bounded by
// dispatchTimeout and returns the first delivery error so the caller can
// surface a soft warning; the triggering transition is already committed.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	var firstErr error
	for _, msg := range Messages(event) {
		msg.ID = uuid.New().String()

		if err := d.SendEmail(ctx, msg.To, msg.Subject, msg.Text, ""); err != nil {
			d.log.Warn("notification email dispatch failed",
				zap.String("kind", string(msg.Kind)),
				zap.String("to", msg.To),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}

		if msg.UserID != "" {
			if err := d.hub.SendJSON(msg.UserID, msg); err != nil {
				d.log.Warn("notification websocket push failed",
					zap.String("kind", string(msg.Kind)),
					zap.String("userId", msg.UserID),
					zap.Error(err))
			}
		}
	}
	return firstErr
}

// SendEmail posts one message to the mail relay. Also used directly by the
// OTP flow and the manual notification endpoint.
func (d *WebhookDispatcher) SendEmail(ctx context.Context, to, subject, text, html string) error {
	if d.webhookURL == "" {
		return fmt.Errorf("mail webhook URL is not configured")
	}
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(emailPayload{
			From:    d.from,
			To:      to,
			Subject: subject,
			Text:    text,
			HTML:    html,
		}).
		Post(d.webhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("mail webhook returned %s", resp.Status())
	}
	return nil
}
