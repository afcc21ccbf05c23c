// Package auth issues and verifies the signed bearer tokens that carry a
// user's identity between requests. Tokens are stateless: once issued they
// stay valid until expiry and nothing is stored server-side.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims embeds the registered claims and adds the user identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateToken signs a token embedding userID with an absolute expiry of
// now + validityDuration. HS256 with the shared secret, always.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies tokenString and returns the embedded user
// identifier. The accepted algorithm is fixed by the verifier; whatever the
// token header claims is irrelevant. Expired tokens yield ErrTokenExpired,
// every other failure ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
