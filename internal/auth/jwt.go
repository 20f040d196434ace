// Package auth issues and validates the JWTs that authenticate dashboard
// requests. Tokens are minted after the platform OAuth flow confirms the
// user's identity; this package never sees OAuth credentials.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the JWT payload for dashboard access tokens. UserID is the
// platform user ID (a snowflake string).
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService manages signed dashboard access tokens.
type TokenService struct {
	secret       []byte
	accessExpiry time.Duration
}

// NewTokenService creates a TokenService with the given HMAC secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret:       []byte(secret),
		accessExpiry: 24 * time.Hour,
	}
}

// GenerateAccessToken creates a signed JWT for the given platform user.
func (ts *TokenService) GenerateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses and validates a JWT, returning the claims.
func (ts *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no user ID")
	}
	return claims, nil
}
