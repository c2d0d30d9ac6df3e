// server/internal/api/handlers/notification_handler.go
package handlers

import (
	"net/http"

	"gasbygas-api-server/internal/notify"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Mailer *notify.WebhookDispatcher
}

type SendEmailPayload struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Text    string `json:"text" binding:"required"`
	HTML    string `json:"html"`
}

// SendEmailNotification relays an email through the mail webhook.
func (h *NotificationHandler) SendEmailNotification(c *gin.Context) {
	var payload SendEmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Mailer.SendEmail(c.Request.Context(), payload.To, payload.Subject, payload.Text, payload.HTML); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
