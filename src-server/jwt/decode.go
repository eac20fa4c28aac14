package jwt

import (
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Decode verifies the signature and expiry of token.
func Decode(token string, secret string) (*Payload, error) {
	payload := new(Payload)
	parsed, err := gojwt.ParseWithClaims(token, payload, func(t *gojwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if payload.UserID == "" {
		return nil, fmt.Errorf("token has no user id")
	}
	return payload, nil
}
