// server/internal/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleConsumer      = "consumer"
	RoleOutletManager = "outlet_manager"
	RoleAdmin         = "admin"
)

type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	Phone           string             `bson:"phone" json:"phone"`
	NIC             string             `bson:"nic" json:"nic"`
	Role            string             `bson:"role" json:"role"`
	IsVerified      bool               `bson:"isVerified" json:"isVerified"`
	VerificationOTP string             `bson:"verificationOTP,omitempty" json:"-"`
	OTPExpires      time.Time          `bson:"otpExpires,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
