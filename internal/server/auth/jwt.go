// Package auth mints and verifies the homeserver's access tokens.
// A token binds a user ID to the device that issued it; verification
// yields the Principal consumed by request handlers.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avolkhin/roost/internal/common"
	"github.com/avolkhin/roost/internal/server/models"
)

// Claims carries the registered JWT claims plus the principal fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	DeviceID string `json:"did"`
}

// GenerateToken signs an HS256 access token for the (user, device)
// pair.
func GenerateToken(userID, deviceID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:   userID,
		DeviceID: deviceID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetPrincipalFromToken verifies the token signature and expiry and
// returns the principal it carries. Expired tokens report
// common.ErrTokenExpired; any other verification failure reports
// common.ErrInvalidToken.
func GetPrincipalFromToken(tokenString string, secretKey []byte) (models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, common.ErrTokenExpired
		}
		return models.Principal{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return models.Principal{}, common.ErrInvalidToken
	}

	return models.Principal{UserID: claims.UserID, DeviceID: claims.DeviceID}, nil
}
