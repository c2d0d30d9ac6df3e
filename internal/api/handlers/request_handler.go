// server/internal/api/handlers/request_handler.go
package handlers

import (
	"context"
	"net/http"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RequestHandler struct {
	DB       *mongo.Database
	Workflow *workflow.Requests
}

type CreateGasRequestPayload struct {
	OutletID string `json:"outletId" binding:"required"`
	Quantity int    `json:"quantity"`
	Address  string `json:"address" binding:"required"`
}

// CreateRequest files a gas request for the authenticated consumer. Stock is
// reserved atomically together with request creation.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor := actorFromContext(c)

	var payload CreateGasRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	outletID, err := primitive.ObjectIDFromHex(payload.OutletID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	request, warn, err := h.Workflow.Create(c.Request.Context(), actor.ID, outletID, payload.Quantity, payload.Address)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withWarning(gin.H{"request": request}, warn))
}

// GetTokenStatus resolves a token for the consumer that owns it.
func (h *RequestHandler) GetTokenStatus(c *gin.Context) {
	actor := actorFromContext(c)

	request, err := h.Workflow.LookupByToken(c.Request.Context(), actor.ID, c.Param("token"))
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// CheckAvailability lists outlets that currently hold stock.
func (h *RequestHandler) CheckAvailability(c *gin.Context) {
	collection := h.DB.Collection("outlets")

	cursor, err := collection.Find(context.Background(), bson.M{"currentStock": bson.M{"$gt": 0}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query outlets"})
		return
	}
	defer cursor.Close(context.Background())

	var outlets []models.Outlet
	if err = cursor.All(context.Background(), &outlets); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode outlets"})
		return
	}
	if outlets == nil {
		outlets = []models.Outlet{}
	}

	c.JSON(http.StatusOK, outlets)
}

// GetAllRequests lists requests, optionally filtered by status.
func (h *RequestHandler) GetAllRequests(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	h.listRequests(c, filter)
}

// GetRequestByID returns one request by id.
func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	collection := h.DB.Collection("requests")
	var request models.Request
	if err := collection.FindOne(context.Background(), bson.M{"_id": requestID}).Decode(&request); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// GetRequestsByOutlet lists requests filed against one outlet.
func (h *RequestHandler) GetRequestsByOutlet(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	filter := bson.M{"outletId": outletID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	h.listRequests(c, filter)
}

// GetManagerOutletRequests lists the requests of the outlet managed by the
// authenticated manager.
func (h *RequestHandler) GetManagerOutletRequests(c *gin.Context) {
	actor := actorFromContext(c)

	var outlet models.Outlet
	err := h.DB.Collection("outlets").FindOne(context.Background(), bson.M{"manager": actor.ID}).Decode(&outlet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "No outlet assigned to this manager"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outlet"})
		}
		return
	}

	h.listRequests(c, bson.M{"outletId": outlet.ID})
}

type UpdateRequestStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRequestStatus transitions a request through its state machine. Only
// the assigned outlet manager or an admin may do this.
func (h *RequestHandler) UpdateRequestStatus(c *gin.Context) {
	actor := actorFromContext(c)

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	var payload UpdateRequestStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, warn, err := h.Workflow.Transition(c.Request.Context(), actor, requestID, payload.Status)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, withWarning(gin.H{"request": request}, warn))
}

func (h *RequestHandler) listRequests(c *gin.Context, filter bson.M) {
	collection := h.DB.Collection("requests")

	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.Request
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}

	c.JSON(http.StatusOK, requests)
}
