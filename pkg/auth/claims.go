package auth

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the backend-issued JWT the client reads.
type TokenClaims struct {
	Email string         `json:"email,omitempty"`
	Role  enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthContext is the identity attached to a logged-in session. ExpiresAt is zero when
// the token carries no readable expiry.
type AuthContext struct {
	Token     string
	User      types.User
	ExpiresAt time.Time
}

// IsAdmin reports the advisory role claim. The backend remains authoritative.
func (a AuthContext) IsAdmin() bool {
	return a.User.IsAdmin()
}

// Expired reports whether the token is known to be past its expiry at now.
func (a AuthContext) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}
