package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Payload is what a session token carries.
type Payload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	gojwt.RegisteredClaims
}

func NewPayload(userID, email string, ttl time.Duration) Payload {
	now := time.Now()
	return Payload{
		UserID: userID,
		Email:  email,
		RegisteredClaims: gojwt.RegisteredClaims{
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
