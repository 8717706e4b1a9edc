// Package auth issues and verifies the access tokens blobd clients present.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard registered claims plus the client the token
// was issued to.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
}

const issuer = "blobd"

// GenerateToken signs an HS256 token for clientID. A zero validity issues a
// token without expiry.
func GenerateToken(clientID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if clientID == "" {
		return "", errors.New("client id is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  clientID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		ClientID: clientID,
	}
	if validityDuration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetClientIDFromToken verifies tokenString and returns its client id.
func GetClientIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ClientID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.ClientID, nil
}
