package gateway

import (
	"context"
	"net/http"

	"autoservice-dashboard/internal/model"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, url: joinURL(c.cfg.AuthURL, "/api/v1/auth/login"), body: req, out: &resp})
	return resp, err
}

// Register creates an account and returns its access token.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, url: joinURL(c.cfg.AuthURL, "/api/v1/auth/register"), body: req, out: &resp})
	return resp, err
}

// GetProfile returns the profile of the session's account.
func (c *Client) GetProfile(ctx context.Context) (model.User, error) {
	return c.GetProfileWithToken(ctx, "")
}

// GetProfileWithToken returns the profile for token, before it is stored in the session.
func (c *Client) GetProfileWithToken(ctx context.Context, token string) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.AuthURL, "/api/v1/users/me"), out: &u, token: token})
	return u, err
}

// UpdateProfile applies patch to the session's profile.
func (c *Client) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodPut, url: joinURL(c.cfg.AuthURL, "/api/v1/users/me"), body: patch, out: &u})
	return u, err
}

// ChangePassword changes the session account's password.
func (c *Client) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	return c.do(ctx, request{method: http.MethodPatch, url: joinURL(c.cfg.AuthURL, "/api/v1/users/me/password"), body: req})
}
