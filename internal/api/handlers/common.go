// server/internal/api/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"gasbygas-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func actorFromContext(c *gin.Context) workflow.Actor {
	id, _ := primitive.ObjectIDFromHex(c.GetString("user_id"))
	return workflow.Actor{ID: id, Role: c.GetString("user_role")}
}

// writeWorkflowError maps the workflow error taxonomy to HTTP status codes.
// Unknown errors stay generic so internals do not leak to the client.
func writeWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, workflow.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, workflow.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this outlet"})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrDuplicateDelivery):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// withWarning attaches the soft notification warning to an otherwise
// successful response body.
func withWarning(body gin.H, warn string) gin.H {
	if warn != "" {
		body["notificationWarning"] = warn
	}
	return body
}
