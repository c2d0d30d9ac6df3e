// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AdminHandler struct {
	DB *mongo.Database
}

// GetOutletStatus reports per-outlet stock utilization.
func (h *AdminHandler) GetOutletStatus(c *gin.Context) {
	collection := h.DB.Collection("outlets")

	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"name":         1,
			"location":     1,
			"capacity":     1,
			"currentStock": 1,
			"utilization": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$capacity", 0}},
				bson.M{"$divide": bson.A{"$currentStock", "$capacity"}},
				0,
			}},
		}}},
	}
	cursor, err := collection.Aggregate(context.Background(), pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate outlets"})
		return
	}
	defer cursor.Close(context.Background())

	var outlets []bson.M
	if err = cursor.All(context.Background(), &outlets); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode outlet status"})
		return
	}
	if outlets == nil {
		outlets = []bson.M{}
	}

	c.JSON(http.StatusOK, outlets)
}

// GenerateReports groups requests by status.
func (h *AdminHandler) GenerateReports(c *gin.Context) {
	collection := h.DB.Collection("requests")

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"count":  bson.M{"$sum": 1},
			"latest": bson.M{"$max": "$createdAt"},
		}}},
	}
	cursor, err := collection.Aggregate(context.Background(), pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate requests"})
		return
	}
	defer cursor.Close(context.Background())

	var report []bson.M
	if err = cursor.All(context.Background(), &report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode report"})
		return
	}
	if report == nil {
		report = []bson.M{}
	}

	c.JSON(http.StatusOK, report)
}
