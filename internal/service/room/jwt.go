package room

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// The reconnect token carries the persistent user id, so a member keeps their
// identity across connections. The ban list keys on this id.
func (s *service) generateAuthToken(userId string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
	})

	return token.SignedString([]byte(s.secret))
}

func (s *service) parseAuthToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse auth token: %w", err)
	}

	if !token.Valid {
		return "", errors.New("invalid auth token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid auth token claims")
	}

	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return "", errors.New("auth token has no user id")
	}

	return userId, nil
}
