package jwt

import (
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Encode signs payload with HS256.
func Encode(payload Payload, secret string) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, payload)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("can't sign token: %w", err)
	}
	return signed, nil
}
