package util

import (
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt"
)

// IsValidPlayerToken verifies a join token issued for a named player. Tokens
// are HMAC-signed with the shared server secret and carry the player name
// and a PLAYER role claim.
func IsValidPlayerToken(secret string, tokenString string, playerName string) bool {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		slog.Warn("failed to verify token", "error", err)
		return false
	}
	if !token.Valid {
		slog.Warn("token is expired or invalid")
		return false
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if claims["player"] == playerName && claims["role"] == "PLAYER" {
			return true
		}
	} else {
		slog.Warn("failed to read token claims")
	}
	return false
}
