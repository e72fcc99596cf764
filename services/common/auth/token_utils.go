package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrSecretNotConfigured is returned when no signing secret was provided.
var ErrSecretNotConfigured = errors.New("JWT secret not configured")

// Identity is what the services need to know about an authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// TokenValidator verifies HMAC-signed access tokens.
type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &TokenValidator{}
	}
	return &TokenValidator{secret: []byte(secret)}
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func (v *TokenValidator) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if v.secret == nil {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})

	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// Identify validates an access token and extracts the caller identity.
func (v *TokenValidator) Identify(tokenStr string) (*Identity, error) {
	claims, err := v.ParseAndValidateToken(tokenStr, "access")
	if err != nil {
		return nil, err
	}

	id := &Identity{}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		id.UserID = sub
	} else if uid, ok := claims["user_id"].(string); ok {
		id.UserID = uid
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	id.Role, _ = claims["role"].(string)
	return id, nil
}

// Sign issues an access token for the identity; used by tooling and tests.
func (v *TokenValidator) Sign(id Identity, ttl time.Duration) (string, error) {
	if v.secret == nil {
		return "", ErrSecretNotConfigured
	}
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"role": id.Role,
		"typ":  "access",
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
