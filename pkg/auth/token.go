package auth

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

// InspectToken decodes the claims of a backend token without verifying its signature.
// The client never holds the signing secret, so the result is informational only.
func InspectToken(tokenString string) (*TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("token is required")
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return claims, nil
}

// NewAuthContext builds the session identity from an auth response. The expiry is read
// from the token when it is decodable; an opaque token yields no expiry.
func NewAuthContext(resp types.AuthResponse) AuthContext {
	authCtx := AuthContext{Token: resp.Token, User: resp.User}
	claims, err := InspectToken(resp.Token)
	if err != nil {
		return authCtx
	}
	if claims.ExpiresAt != nil {
		authCtx.ExpiresAt = claims.ExpiresAt.Time
	}
	if authCtx.User.Email == "" {
		authCtx.User.Email = claims.Email
	}
	if authCtx.User.Role == "" {
		authCtx.User.Role = claims.Role
	}
	return authCtx
}
