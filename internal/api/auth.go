package api

import (
	"context"
	"net/http"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// messageResponse is the generic {"message": ...} reply
type messageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest contains data for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned by the register endpoint
type RegisterResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// Login exchanges credentials for session cookies
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/login/", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

// Register creates an account; the backend mails a one-time code
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmail confirms an email address with its one-time code
func (c *Client) VerifyEmail(ctx context.Context, email, otp string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/auth/verify-email/", map[string]string{
		"email": email,
		"otp":   otp,
	}, &resp)
	return resp.Message, err
}

// Logout invalidates the session cookies server-side
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout/", map[string]any{}, nil)
}

// RefreshToken trades the refresh_token cookie for a new access token
func (c *Client) RefreshToken(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/token/refresh/", map[string]any{}, nil)
}

// CurrentUser returns the logged-in user
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/user/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset mails a one-time code for resetting the password
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/auth/password-reset-request/", map[string]string{
		"email": email,
	}, &resp)
	return resp.Message, err
}

// ResetPassword sets a new password using the mailed one-time code
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/auth/password-reset/", map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	}, &resp)
	return resp.Message, err
}
