package utils

import (
	"errors"
	"strconv"
	"time"

	"hotelops/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaims struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	ClientID    int64  `json:"client_id,omitempty"`
	PersonnelID int64  `json:"personnel_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Actor() *models.Actor {
	return &models.Actor{
		UserID:      c.UserID,
		Role:        c.Role,
		ClientID:    c.ClientID,
		PersonnelID: c.PersonnelID,
	}
}

// GenerateAccessToken signs a token for actor. Tokens are normally issued by
// the identity service; this is used by tooling and tests.
func GenerateAccessToken(actor *models.Actor, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:      actor.UserID,
		Role:        actor.Role,
		ClientID:    actor.ClientID,
		PersonnelID: actor.PersonnelID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   strconv.FormatInt(actor.UserID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.UserID <= 0 {
			return nil, errors.New("token has no user id")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
