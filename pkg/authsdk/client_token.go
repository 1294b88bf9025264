package authsdk

import (
	"context"
	"net/http"
)

// Login authenticates with email and password. When the account has MFA
// enabled the response carries an MFA session token instead of tokens;
// finish with VerifyMFA.
func (c *Client) Login(ctx context.Context, email, password, recaptchaToken string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:          email,
		Password:       password,
		RecaptchaToken: recaptchaToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginGoogle exchanges a Google OAuth access token.
func (c *Client) LoginGoogle(ctx context.Context, accessToken, recaptchaToken string) (*AuthResponse, error) {
	return c.socialLogin(ctx, "/api/auth/login/google", accessToken, recaptchaToken)
}

// LoginFacebook exchanges a Facebook access token.
func (c *Client) LoginFacebook(ctx context.Context, accessToken, recaptchaToken string) (*AuthResponse, error) {
	return c.socialLogin(ctx, "/api/auth/login/facebook", accessToken, recaptchaToken)
}

func (c *Client) socialLogin(ctx context.Context, path, accessToken, recaptchaToken string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, path, "", SocialLoginRequest{
		AccessToken:    accessToken,
		RecaptchaToken: recaptchaToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyMFA trades an MFA session token and a TOTP or backup code for tokens.
// A wrong code leaves the session usable until it expires or runs out of
// attempts.
func (c *Client) VerifyMFA(ctx context.Context, sessionToken, code string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/verify-mfa", "", VerifyMFARequest{
		Code:         code,
		SessionToken: sessionToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates a refresh token. The old one stops working.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes token, which may be an access or a refresh token. The
// service answers success even when revocation could not be recorded.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// Me returns the profile of the access token's account.
func (c *Client) Me(ctx context.Context, accessToken string) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
