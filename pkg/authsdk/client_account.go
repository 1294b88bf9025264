package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RegisterUser creates an unverified USER account and triggers a
// verification email.
func (c *Client) RegisterUser(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/register/user", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterAdmin creates an ADMIN account. accessToken must belong to a
// SUPERADMIN.
func (c *Client) RegisterAdmin(ctx context.Context, accessToken string, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/register/admin", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail consumes the token from a verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/api/email/verify?token="+url.QueryEscape(token), "", nil, nil)
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/email/resend-verification", "", ResendVerificationRequest{Email: email}, nil)
}

// ForgotPassword always succeeds, whether or not email is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", "", ForgotPasswordRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", "", ResetPasswordRequest{
		Token:           token,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}, nil)
}
