package auth

import (
	"errors"
	"fmt"
	"time"

	"filiales-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token inválido")

type JWTCustomClaims struct {
	UserID   uint            `json:"user_id"`
	Role     models.UserRole `json:"role"`
	FilialID *uint           `json:"filial_id"`
	jwt.RegisteredClaims
}

// Identity returns the claims as an identity without a display name.
func (c *JWTCustomClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, FilialID: c.FilialID}
}

func GenerateToken(secret string, ttl time.Duration, id Identity) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		UserID:   id.UserID,
		Role:     id.Role,
		FilialID: id.FilialID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id.UserID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry.
func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
