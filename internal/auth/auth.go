// server/internal/auth/auth.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTClaims defines the payload for the JWT. Subject carries the user id; the
// workflow consumes the (id, role) pair and never re-checks credentials.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. The secret is injected from config at
// startup; there is no package-level secret.
type Service struct {
	secret     []byte
	expiration time.Duration
}

func NewService(secret, expiration string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	exp, err := time.ParseDuration(expiration)
	if err != nil || exp <= 0 {
		exp = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), expiration: exp}, nil
}

func (s *Service) Generate(userID, role string) (string, error) {
	claims := &JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
