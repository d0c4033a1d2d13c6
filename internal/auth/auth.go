// Package auth resolves user identity from bearer tokens. The identity
// provider itself is external; this package only verifies the signed tokens
// it issues.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// Verifier resolves an identity from a raw Authorization header value.
type Verifier interface {
	Verify(ctx context.Context, authHeader string) (*Identity, error)
}

// JWTVerifier validates HS256-signed bearer tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify checks the "Bearer <token>" header and extracts the user claims.
func (v *JWTVerifier) Verify(_ context.Context, authHeader string) (*Identity, error) {
	token, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("auth.Verify: invalid or expired token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("auth.Verify: unexpected claims type %T", parsed.Claims)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// Some issuers put the user id in the standard subject claim.
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, fmt.Errorf("auth.Verify: token carries no user id")
	}

	email, _ := claims["email"].(string)
	return &Identity{UserID: userID, Email: email}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("auth: authorization header required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("auth: invalid authorization format")
	}
	return parts[1], nil
}
