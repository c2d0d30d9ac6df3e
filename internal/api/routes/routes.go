// server/internal/api/routes/routes.go
package routes

import (
	"gasbygas-api-server/internal/api/handlers"
	"gasbygas-api-server/internal/api/middleware"
	"gasbygas-api-server/internal/auth"
	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"
	"gasbygas-api-server/internal/socket"
	"gasbygas-api-server/internal/store"
	"gasbygas-api-server/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SetupRouter wires the handlers to their dependencies and lays out the
// route groups.
func SetupRouter(
	db *mongo.Database,
	authSvc *auth.Service,
	notifier *notify.WebhookDispatcher,
	wsHub *socket.Hub,
	requestsWF *workflow.Requests,
	deliveriesWF *workflow.Deliveries,
	stockWF *workflow.Stock,
	requestStore *store.Requests,
	deliveryStore *store.Deliveries,
	log *zap.Logger,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	authHandler := &handlers.AuthHandler{DB: db, Auth: authSvc, Mailer: notifier, Log: log}
	outletHandler := &handlers.OutletHandler{DB: db, Requests: requestStore, Notifier: notifier, Log: log}
	requestHandler := &handlers.RequestHandler{DB: db, Workflow: requestsWF}
	deliveryHandler := &handlers.DeliveryHandler{Stock: stockWF, Workflow: deliveriesWF, Deliveries: deliveryStore}
	adminHandler := &handlers.AdminHandler{DB: db}
	notificationHandler := &handlers.NotificationHandler{Mailer: notifier}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Auth: authSvc, Log: log}

	api := router.Group("/api")
	{
		// WebSocket notification feed (token in query string).
		api.GET("/ws", webSocketHandler.ServeWs)

		// === UNAUTHENTICATED ROUTES ===

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/verify-identity", authHandler.VerifyIdentity)
		}

		public := api.Group("/public")
		{
			public.GET("/outlets", outletHandler.GetPublicOutlets)
			public.GET("/availability", requestHandler.CheckAvailability)
		}

		// === PROTECTED ROUTES ===

		adminAuth := api.Group("/auth")
		adminAuth.Use(middleware.Authenticate(authSvc))
		adminAuth.Use(middleware.Authorize(models.RoleAdmin))
		{
			adminAuth.GET("/users", authHandler.GetAllUsers)
			adminAuth.POST("/managers", authHandler.RegisterOutletManager)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.Authenticate(authSvc))
		admin.Use(middleware.Authorize(models.RoleAdmin))
		{
			admin.GET("/outlets", adminHandler.GetOutletStatus)
			admin.GET("/reports", adminHandler.GenerateReports)
			admin.GET("/managers/unassigned", outletHandler.GetUnassignedManagers)
			admin.GET("/outlets/unassigned", outletHandler.GetUnassignedOutlets)
		}

		outlets := api.Group("/outlets")
		outlets.Use(middleware.Authenticate(authSvc))
		{
			adminOutlets := outlets.Group("/")
			adminOutlets.Use(middleware.Authorize(models.RoleAdmin))
			{
				adminOutlets.POST("", outletHandler.CreateOutlet)
				adminOutlets.PUT("/:id", outletHandler.UpdateOutlet)
				adminOutlets.DELETE("/:id", outletHandler.DeleteOutlet)
				adminOutlets.PUT("/:id/manager", outletHandler.AssignManager)
			}

			readOutlets := outlets.Group("/")
			readOutlets.Use(middleware.Authorize(models.RoleAdmin, models.RoleOutletManager))
			{
				readOutlets.GET("", outletHandler.GetOutlets)
				readOutlets.GET("/:id", outletHandler.GetOutlet)
				readOutlets.GET("/:id/requests", requestHandler.GetRequestsByOutlet)
				readOutlets.GET("/:id/deliveries", deliveryHandler.GetScheduledDeliveries)
				readOutlets.POST("/:id/stock", deliveryHandler.UpdateStock)
			}
		}

		requests := api.Group("/requests")
		requests.Use(middleware.Authenticate(authSvc))
		{
			requests.POST("", middleware.Authorize(models.RoleConsumer), requestHandler.CreateRequest)
			requests.GET("", middleware.Authorize(models.RoleAdmin), requestHandler.GetAllRequests)
			requests.GET("/:id", middleware.Authorize(models.RoleAdmin, models.RoleOutletManager), requestHandler.GetRequestByID)
			requests.PUT("/:id/status", middleware.Authorize(models.RoleAdmin, models.RoleOutletManager), requestHandler.UpdateRequestStatus)
		}

		tokens := api.Group("/tokens")
		tokens.Use(middleware.Authenticate(authSvc))
		tokens.Use(middleware.Authorize(models.RoleConsumer))
		{
			tokens.GET("/:token", requestHandler.GetTokenStatus)
		}

		manager := api.Group("/manager")
		manager.Use(middleware.Authenticate(authSvc))
		manager.Use(middleware.Authorize(models.RoleOutletManager))
		{
			manager.GET("/requests", requestHandler.GetManagerOutletRequests)
		}

		deliveries := api.Group("/deliveries")
		deliveries.Use(middleware.Authenticate(authSvc))
		deliveries.Use(middleware.Authorize(models.RoleAdmin, models.RoleOutletManager))
		{
			deliveries.POST("", deliveryHandler.ScheduleDelivery)
			deliveries.POST("/:deliveryId/confirm", deliveryHandler.ConfirmDelivery)
			deliveries.PUT("/:deliveryId/status", deliveryHandler.UpdateDeliveryStatus)
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.Authenticate(authSvc))
		{
			notifications.POST("/email", notificationHandler.SendEmailNotification)
		}
	}

	return router
}
