// Package provider adapts external credential verifiers: reCAPTCHA and the
// Google and Facebook userinfo endpoints. Each adapter turns an opaque token
// into a validity answer or a normalised identity.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrInvalidToken is returned when a provider rejects a token.
var ErrInvalidToken = errors.New("provider: invalid token")

const defaultTimeout = 10 * time.Second

// Identity is what a social provider reports about a token's owner.
type Identity struct {
	ProviderID string
	Email      string
	Name       string
}

// RecaptchaVerifier answers whether a reCAPTCHA response token is valid.
type RecaptchaVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// IdentityVerifier exchanges a social access token for an Identity.
type IdentityVerifier interface {
	Identify(ctx context.Context, accessToken string) (Identity, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
