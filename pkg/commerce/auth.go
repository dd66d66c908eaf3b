package commerce

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Login exchanges credentials for a token. No credential is attached.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error) {
	return c.authenticate(ctx, "login", "auth/login", creds)
}

// Register creates an account and returns a token for it.
func (c *Client) Register(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error) {
	return c.authenticate(ctx, "register", "auth/register", creds)
}

func (c *Client) authenticate(ctx context.Context, operation, path string, creds types.Credentials) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	if err := c.do(ctx, call{
		operation: operation,
		method:    http.MethodPost,
		path:      path,
		body:      creds,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.do(ctx, call{
		operation:     "me",
		method:        http.MethodGet,
		path:          "auth/me",
		authenticated: true,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
