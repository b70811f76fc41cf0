package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues an HS256 token carrying the user id and role.
func GenerateToken(userID int64, role, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(2 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// VerifyToken validates a token and returns the user id and role it carries.
func VerifyToken(tokenString, secret string) (int64, string, error) {
	parsedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, "", errors.New("could not parse token")
	}
	if !parsedToken.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}
	rawID, ok := claims["userId"].(float64)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}
	role, _ := claims["role"].(string)

	return int64(rawID), role, nil
}
