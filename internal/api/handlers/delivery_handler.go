// server/internal/api/handlers/delivery_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"gasbygas-api-server/internal/store"
	"gasbygas-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryHandler struct {
	Stock      *workflow.Stock
	Workflow   *workflow.Deliveries
	Deliveries *store.Deliveries
}

type UpdateStockPayload struct {
	Stock *int `json:"stock" binding:"required"`
}

// UpdateStock is the direct override of an outlet's shelf count, bounded by
// capacity and restricted to the assigned manager or an admin.
func (h *DeliveryHandler) UpdateStock(c *gin.Context) {
	actor := actorFromContext(c)

	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	var payload UpdateStockPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Stock.Set(c.Request.Context(), actor, outletID, *payload.Stock); err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully"})
}

type ScheduleDeliveryPayload struct {
	OutletID      string `json:"outletId" binding:"required"`
	RequestID     string `json:"requestId" binding:"required"`
	ScheduledDate string `json:"scheduledDate" binding:"required"`
}

// ScheduleDelivery creates a delivery for an existing request.
func (h *DeliveryHandler) ScheduleDelivery(c *gin.Context) {
	actor := actorFromContext(c)

	var payload ScheduleDeliveryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outletID, err := primitive.ObjectIDFromHex(payload.OutletID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}
	requestID, err := primitive.ObjectIDFromHex(payload.RequestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}
	scheduledDate, err := time.Parse(time.RFC3339, payload.ScheduledDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduledDate must be an RFC3339 timestamp"})
		return
	}

	delivery, warn, err := h.Workflow.Schedule(c.Request.Context(), actor, outletID, requestID, scheduledDate)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withWarning(gin.H{"delivery": delivery}, warn))
}

// GetScheduledDeliveries lists the open deliveries of an outlet.
func (h *DeliveryHandler) GetScheduledDeliveries(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	deliveries, err := h.Deliveries.ListScheduledByOutlet(context.Background(), outletID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query deliveries"})
		return
	}

	c.JSON(http.StatusOK, deliveries)
}

// ConfirmDelivery completes a scheduled delivery.
func (h *DeliveryHandler) ConfirmDelivery(c *gin.Context) {
	actor := actorFromContext(c)

	deliveryID, err := primitive.ObjectIDFromHex(c.Param("deliveryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery id"})
		return
	}

	delivery, warn, err := h.Workflow.Confirm(c.Request.Context(), actor, deliveryID)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, withWarning(gin.H{"delivery": delivery}, warn))
}

type UpdateDeliveryStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// UpdateDeliveryStatus is the generalized delivery transition (cancellation
// included).
func (h *DeliveryHandler) UpdateDeliveryStatus(c *gin.Context) {
	actor := actorFromContext(c)

	deliveryID, err := primitive.ObjectIDFromHex(c.Param("deliveryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery id"})
		return
	}

	var payload UpdateDeliveryStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivery, warn, err := h.Workflow.UpdateStatus(c.Request.Context(), actor, deliveryID, payload.Status)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, withWarning(gin.H{"delivery": delivery}, warn))
}
