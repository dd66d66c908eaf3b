package auth

import (
	"context"
	"fmt"
	"strings"

	pkgauth "github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/angelmondragon/storefront/pkg/validate"
)

// Service logs a shopper in or out of the current client session.
type Service interface {
	Login(ctx context.Context, creds types.Credentials) (*pkgauth.AuthContext, error)
	Register(ctx context.Context, creds types.Credentials) (*pkgauth.AuthContext, error)
	Logout(ctx context.Context)
	Current() (pkgauth.AuthContext, bool)
}

type backend interface {
	Login(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error)
	Register(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error)
}

type sessionStore interface {
	Begin(authCtx pkgauth.AuthContext) error
	Current() (pkgauth.AuthContext, bool)
	End()
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Backend  backend
	Sessions sessionStore
	Logger   *logger.Logger
}

type service struct {
	backend  backend
	sessions sessionStore
	logg     *logger.Logger
}

// NewService constructs the login service.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		backend:  params.Backend,
		sessions: params.Sessions,
		logg:     logg,
	}, nil
}

func (s *service) Login(ctx context.Context, creds types.Credentials) (*pkgauth.AuthContext, error) {
	return s.authenticate(ctx, creds, s.backend.Login, "login")
}

func (s *service) Register(ctx context.Context, creds types.Credentials) (*pkgauth.AuthContext, error) {
	return s.authenticate(ctx, creds, s.backend.Register, "registration")
}

func (s *service) authenticate(
	ctx context.Context,
	creds types.Credentials,
	call func(context.Context, types.Credentials) (*types.AuthResponse, error),
	action string,
) (*pkgauth.AuthContext, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := validate.Struct(creds); err != nil {
		return nil, err
	}

	resp, err := call(ctx, creds)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeTransport, action+" response is missing a token")
	}

	authCtx := pkgauth.NewAuthContext(*resp)
	if err := s.sessions.Begin(authCtx); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserEmail(ctx, authCtx.User.Email)
	s.logg.Info(ctx, action+" succeeded")
	return &authCtx, nil
}

// Logout drops the identity locally. The backend keeps no session to revoke.
func (s *service) Logout(ctx context.Context) {
	if current, ok := s.sessions.Current(); ok {
		ctx = s.logg.WithUserEmail(ctx, current.User.Email)
	}
	s.sessions.End()
	s.logg.Info(ctx, "logged out")
}

func (s *service) Current() (pkgauth.AuthContext, bool) {
	return s.sessions.Current()
}
