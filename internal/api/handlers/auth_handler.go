// server/internal/api/handlers/auth_handler.go
package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"gasbygas-api-server/internal/auth"
	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const otpTTL = 10 * time.Minute

type AuthHandler struct {
	DB     *mongo.Database
	Auth   *auth.Service
	Mailer *notify.WebhookDispatcher
	Log    *zap.Logger
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
	NIC      string `json:"nic" binding:"required"`
}

// Register creates a consumer account and sends the verification OTP.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	count, err := collection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	otp := fmt.Sprintf("%06d", 100000+rand.IntN(900000))
	now := time.Now()
	user := models.User{
		Name:            req.Name,
		Email:           email,
		Password:        hashedPassword,
		Phone:           req.Phone,
		NIC:             req.NIC,
		Role:            models.RoleConsumer,
		IsVerified:      false,
		VerificationOTP: otp,
		OTPExpires:      now.Add(otpTTL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := collection.InsertOne(context.Background(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if err := h.Mailer.SendEmail(context.Background(), email, "Your Verification OTP",
		fmt.Sprintf("Your OTP is: %s", otp), ""); err != nil {
		h.Log.Warn("failed to send verification OTP", zap.String("email", email), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	var user models.User
	if err := collection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Admin accounts are exempt from email verification.
	if !user.IsVerified && user.Role != models.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please verify your email first"})
		return
	}

	token, err := h.Auth.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

type VerifyIdentityRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

func (h *AuthHandler) VerifyIdentity(c *gin.Context) {
	var req VerifyIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	var user models.User
	if err := collection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
		return
	}

	if user.VerificationOTP == "" || user.VerificationOTP != req.OTP {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}
	if time.Now().After(user.OTPExpires) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has expired"})
		return
	}

	_, err := collection.UpdateOne(context.Background(), bson.M{"_id": user.ID}, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": time.Now()},
		"$unset": bson.M{"verificationOTP": "", "otpExpires": ""},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

type RegisterManagerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required"`
	NIC      string `json:"nic" binding:"required"`
}

// RegisterOutletManager is the admin path for creating manager accounts.
// Managers are verified on creation.
func (h *AuthHandler) RegisterOutletManager(c *gin.Context) {
	var req RegisterManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collection := h.DB.Collection("users")

	count, err := collection.CountDocuments(context.Background(), bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now()
	user := models.User{
		Name:       req.Name,
		Email:      email,
		Password:   hashedPassword,
		Phone:      req.Phone,
		NIC:        req.NIC,
		Role:       models.RoleOutletManager,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	result, err := collection.InsertOne(context.Background(), user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create outlet manager"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Outlet manager registered successfully",
		"userId":  result.InsertedID.(primitive.ObjectID),
	})
}

// GetAllUsers lists accounts with their contact fields only.
func (h *AuthHandler) GetAllUsers(c *gin.Context) {
	collection := h.DB.Collection("users")

	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1, "phone": 1, "role": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(context.Background(), bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query users"})
		return
	}
	defer cursor.Close(context.Background())

	var users []models.User
	if err = cursor.All(context.Background(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}
