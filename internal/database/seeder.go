// server/internal/database/seeder.go
package database

import (
	"context"
	"time"

	"gasbygas-api-server/internal/auth"
	"gasbygas-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@gasbygas.com"
	adminPassword = "admin123"
)

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
func SeedAdmin(db *mongo.Database, log *zap.Logger) error {
	userCollection := db.Collection("users")

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("admin user already exists, seeding skipped")
		return nil
	}

	log.Info("admin user not found, seeding")
	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := models.User{
		Name:       "Admin User",
		Email:      adminEmail,
		Password:   hashedPassword,
		Phone:      "0712345678",
		NIC:        "200012345678",
		Role:       models.RoleAdmin,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := userCollection.InsertOne(context.Background(), admin); err != nil {
		return err
	}

	log.Info("admin user seeded successfully")
	return nil
}
