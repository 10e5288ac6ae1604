package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	UserType string `json:"user_type,omitempty"`
}

// IssueToken signs a 24h HS256 access token for the given user.
func IssueToken(userID, userType string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", E(CodeInternal, "IssueToken", "JWT_SECRET is not set", nil)
	}

	now := time.Now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
		UserType: userType,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an access token and returns its claims.
func ParseToken(raw string) (*AccessClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, E(CodeInternal, "ParseToken", "JWT_SECRET is not set", nil)
	}

	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid {
		return nil, E(CodeUnauthorized, "ParseToken", "invalid token", err)
	}
	if claims.Subject == "" {
		return nil, E(CodeUnauthorized, "ParseToken", "missing subject", nil)
	}
	return claims, nil
}
