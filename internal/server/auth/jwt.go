// Package auth implements the authentication and authorization core:
// bcrypt password hashing, HS256 token issue/verify, and the single
// authorization decision used by middleware and services.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/models"
)

// Claims carries the identity fields embedded in an access token alongside
// the registered JWT claims. Tokens are stateless: no live account status
// travels with them, which is why the authentication gate re-reads the user
// on every request.
type Claims struct {
	jwt.RegisteredClaims
	UserID     int64             `json:"userId"`
	Email      string            `json:"email"`
	Role       models.Role       `json:"role"`
	Department models.Department `json:"department"`
}

// GenerateToken mints a signed HS256 token for the given identity, valid for
// validityDuration from now.
func GenerateToken(identity *models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:     identity.UserID,
		Email:      identity.Email,
		Role:       identity.Role,
		Department: identity.Department,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the embedded claims.
// Expired tokens yield common.ErrTokenExpired; malformed tokens and bad
// signatures yield common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Identity converts verified claims back into a request identity.
func (c *Claims) Identity() *models.Identity {
	return &models.Identity{
		UserID:     c.UserID,
		Email:      c.Email,
		Role:       c.Role,
		Department: c.Department,
	}
}
