package auth

import (
	pkgauth "github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Identity exposes the active session identity.
type Identity interface {
	Current() (pkgauth.AuthContext, bool)
}

// RequireUser returns the active identity or an Unauthenticated error.
func RequireUser(identity Identity) (pkgauth.AuthContext, error) {
	if identity == nil {
		return pkgauth.AuthContext{}, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	authCtx, ok := identity.Current()
	if !ok {
		return pkgauth.AuthContext{}, pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	return authCtx, nil
}

// RequireAdmin gates admin screens on the role claim. The gate is advisory; the
// backend rejects non-admin writes regardless.
func RequireAdmin(identity Identity) (pkgauth.AuthContext, error) {
	authCtx, err := RequireUser(identity)
	if err != nil {
		return authCtx, err
	}
	if !authCtx.IsAdmin() {
		return pkgauth.AuthContext{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return authCtx, nil
}
