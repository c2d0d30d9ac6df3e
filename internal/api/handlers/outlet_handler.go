// server/internal/api/handlers/outlet_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"
	"gasbygas-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type OutletHandler struct {
	DB       *mongo.Database
	Requests *store.Requests
	Notifier *notify.WebhookDispatcher
	Log      *zap.Logger
}

type CreateOutletRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
	District string `json:"district" binding:"required"`
	Contact  string `json:"contact" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
	Manager  string `json:"manager"`
}

// CreateOutlet creates a new outlet. Stock starts at zero.
func (h *OutletHandler) CreateOutlet(c *gin.Context) {
	var req CreateOutletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	outlet := models.Outlet{
		Name:         req.Name,
		Location:     req.Location,
		District:     req.District,
		Contact:      req.Contact,
		Capacity:     req.Capacity,
		CurrentStock: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Manager != "" {
		managerID, err := primitive.ObjectIDFromHex(req.Manager)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid manager id"})
			return
		}
		outlet.Manager = managerID
	}

	collection := h.DB.Collection("outlets")
	result, err := collection.InsertOne(context.Background(), outlet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create outlet"})
		return
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		outlet.ID = oid
	}

	c.JSON(http.StatusCreated, outlet)
}

// GetOutlets lists all outlets.
func (h *OutletHandler) GetOutlets(c *gin.Context) {
	collection := h.DB.Collection("outlets")

	cursor, err := collection.Find(context.Background(), bson.M{})
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

// GetOutlet returns one outlet by id.
func (h *OutletHandler) GetOutlet(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	collection := h.DB.Collection("outlets")
	var outlet models.Outlet
	if err := collection.FindOne(context.Background(), bson.M{"_id": outletID}).Decode(&outlet); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outlet"})
		}
		return
	}

	c.JSON(http.StatusOK, outlet)
}

type UpdateOutletRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
	District string `json:"district" binding:"required"`
	Contact  string `json:"contact" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

// UpdateOutlet updates outlet details. Stock is mutated only through the
// stock endpoints and the request workflow, never here.
func (h *OutletHandler) UpdateOutlet(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	var req UpdateOutletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("outlets")
	result, err := collection.UpdateOne(context.Background(), bson.M{"_id": outletID}, bson.M{"$set": bson.M{
		"name":      req.Name,
		"location":  req.Location,
		"district":  req.District,
		"contact":   req.Contact,
		"capacity":  req.Capacity,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update outlet"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Outlet updated successfully"})
}

// DeleteOutlet removes an outlet. Rejected while open requests still
// reference it, so reservations are never orphaned.
func (h *OutletHandler) DeleteOutlet(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	open, err := h.Requests.CountOpen(context.Background(), outletID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check open requests"})
		return
	}
	if open > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Outlet has open requests and cannot be deleted"})
		return
	}

	collection := h.DB.Collection("outlets")
	result, err := collection.DeleteOne(context.Background(), bson.M{"_id": outletID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete outlet"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Outlet deleted successfully"})
}

type AssignManagerRequest struct {
	ManagerID string `json:"managerId" binding:"required"`
}

// AssignManager assigns an outlet_manager to an outlet. A manager runs at
// most one outlet.
func (h *OutletHandler) AssignManager(c *gin.Context) {
	outletID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outlet id"})
		return
	}

	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	managerID, err := primitive.ObjectIDFromHex(req.ManagerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid manager id"})
		return
	}

	var manager models.User
	if err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"_id": managerID}).Decode(&manager); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Manager not found"})
		return
	}
	if manager.Role != models.RoleOutletManager {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is not an outlet manager"})
		return
	}

	collection := h.DB.Collection("outlets")

	// At most one outlet per manager.
	count, err := collection.CountDocuments(context.Background(),
		bson.M{"manager": managerID, "_id": bson.M{"$ne": outletID}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check manager assignment"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Manager is already assigned to another outlet"})
		return
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var outlet models.Outlet
	err = collection.FindOneAndUpdate(context.Background(),
		bson.M{"_id": outletID},
		bson.M{"$set": bson.M{"manager": managerID, "updatedAt": time.Now()}},
		opts).Decode(&outlet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign manager"})
		}
		return
	}

	var warn string
	if err := h.Notifier.Dispatch(context.Background(), notify.Event{
		Kind:    notify.KindManagerAssigned,
		Manager: &manager,
		Outlet:  &outlet,
	}); err != nil {
		h.Log.Warn("manager assignment notification failed",
			zap.String("outletId", outletID.Hex()), zap.Error(err))
		warn = "notification dispatch failed"
	}

	c.JSON(http.StatusOK, withWarning(gin.H{"outlet": outlet}, warn))
}

// GetPublicOutlets lists outlet contact details without auth.
func (h *OutletHandler) GetPublicOutlets(c *gin.Context) {
	collection := h.DB.Collection("outlets")

	opts := options.Find().SetProjection(bson.M{"name": 1, "location": 1, "district": 1, "contact": 1})
	cursor, err := collection.Find(context.Background(), bson.M{}, opts)
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

// GetUnassignedManagers lists outlet managers not yet running an outlet.
func (h *OutletHandler) GetUnassignedManagers(c *gin.Context) {
	userCollection := h.DB.Collection("users")
	cursor, err := userCollection.Find(context.Background(), bson.M{"role": models.RoleOutletManager})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query managers"})
		return
	}
	defer cursor.Close(context.Background())

	var managers []models.User
	if err = cursor.All(context.Background(), &managers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode managers"})
		return
	}

	outletCursor, err := h.DB.Collection("outlets").Find(context.Background(),
		bson.M{"manager": bson.M{"$ne": nil}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query outlets"})
		return
	}
	defer outletCursor.Close(context.Background())

	var outlets []models.Outlet
	if err = outletCursor.All(context.Background(), &outlets); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode outlets"})
		return
	}

	assigned := make(map[primitive.ObjectID]bool, len(outlets))
	for _, outlet := range outlets {
		assigned[outlet.Manager] = true
	}

	unassigned := []gin.H{}
	for _, manager := range managers {
		if assigned[manager.ID] {
			continue
		}
		unassigned = append(unassigned, gin.H{
			"_id":   manager.ID,
			"name":  manager.Name,
			"email": manager.Email,
			"phone": manager.Phone,
		})
	}

	c.JSON(http.StatusOK, unassigned)
}

// GetUnassignedOutlets lists outlets without a manager.
func (h *OutletHandler) GetUnassignedOutlets(c *gin.Context) {
	collection := h.DB.Collection("outlets")

	opts := options.Find().SetProjection(bson.M{
		"name": 1, "location": 1, "district": 1, "contact": 1, "capacity": 1,
	})
	cursor, err := collection.Find(context.Background(), bson.M{"manager": nil}, opts)
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
