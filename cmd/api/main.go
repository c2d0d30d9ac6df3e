// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"gasbygas-api-server/config"
	"gasbygas-api-server/internal/api/routes"
	"gasbygas-api-server/internal/auth"
	"gasbygas-api-server/internal/database"
	"gasbygas-api-server/internal/notify"
	"gasbygas-api-server/internal/socket"
	"gasbygas-api-server/internal/store"
	"gasbygas-api-server/internal/workflow"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	// 1. Load .env (optional) and configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// 2. Logger
	lvl, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	logger, err := zapcfg.Build()
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer logger.Sync()

	// 3. MongoDB connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	db := client.Database(cfg.Mongo.DBName)

	// 4. Unique indexes the workflow relies on
	if err := store.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	// 5. Bootstrap admin account
	if err := database.SeedAdmin(db, logger); err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}

	// 6. Auth service
	authSvc, err := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		logger.Fatal("failed to create auth service", zap.Error(err))
	}

	// 7. Notification dispatcher and websocket hub
	wsHub := socket.NewHub(logger)
	notifier := notify.NewWebhookDispatcher(cfg.Mail.WebhookURL, cfg.Mail.From, wsHub, logger)

	// 8. Stores and lifecycle managers
	outletStore := store.NewOutlets(db)
	requestStore := store.NewRequests(db)
	deliveryStore := store.NewDeliveries(db)
	userStore := store.NewUsers(db)

	requestsWF := workflow.NewRequests(outletStore, requestStore, userStore, notifier, logger)
	deliveriesWF := workflow.NewDeliveries(outletStore, requestStore, deliveryStore, userStore, notifier, logger)
	stockWF := workflow.NewStock(outletStore, logger)

	// 9. Router
	router := routes.SetupRouter(db, authSvc, notifier, wsHub,
		requestsWF, deliveriesWF, stockWF, requestStore, deliveryStore, logger)

	// 10. Start server
	logger.Info("starting API server", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
