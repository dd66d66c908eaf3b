package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Manager holds the authenticated identity for one client session. It lives in process
// memory only and is never persisted or shared.
type Manager struct {
	mu      sync.RWMutex
	current *auth.AuthContext
	reason  string
	now     func() time.Time
}

// TokenSource is the read side consumed by the API client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(reason string)
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Begin replaces any existing identity with authCtx.
func (m *Manager) Begin(authCtx auth.AuthContext) error {
	if strings.TrimSpace(authCtx.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "token is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := authCtx
	m.current = &copied
	m.reason = ""
	return nil
}

// Current returns the active identity. An expired identity is reported as absent.
func (m *Manager) Current() (auth.AuthContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.Expired(m.now()) {
		return auth.AuthContext{}, false
	}
	return *m.current, true
}

// Token returns the bearer token for an outgoing call.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	authCtx, ok := m.Current()
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeUnauthenticated, "please log in to continue")
	}
	return authCtx.Token, nil
}

// Invalidate drops the identity after the backend rejected it. The caller must log in
// again; there is no refresh.
func (m *Manager) Invalidate(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.reason = reason
}

// End clears the identity on logout.
func (m *Manager) End() {
	m.Invalidate("")
}

// InvalidationReason reports why the last identity was dropped, if it was.
func (m *Manager) InvalidationReason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}
