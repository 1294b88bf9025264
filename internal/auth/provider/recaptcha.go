package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	DefaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

	// RecaptchaTestSecret is Google's published test secret; every token
	// passes when it is configured.
	RecaptchaTestSecret = "6LeIxAcTAAAAAGG-vFI1TnRWxMZNFuojJ4WifJWe"
)

type Recaptcha struct {
	secret    string
	verifyURL string
	client    *http.Client

	warnOnce sync.Once
}

func NewRecaptcha(secret, verifyURL string, client *http.Client) *Recaptcha {
	if verifyURL == "" {
		verifyURL = DefaultRecaptchaVerifyURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &Recaptcha{secret: secret, verifyURL: verifyURL, client: client}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify never returns true for an empty token. An empty secret disables
// the check so local development works without keys.
func (r *Recaptcha) Verify(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	if r.secret == "" {
		r.warnOnce.Do(func() {
			slog.Warn("recaptcha secret not configured, verification disabled")
		})
		return true, nil
	}
	if r.secret == RecaptchaTestSecret {
		return true, nil
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("recaptcha: siteverify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("recaptcha: siteverify status %s", resp.Status)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("recaptcha: decode: %w", err)
	}
	if !body.Success {
		slog.WarnContext(ctx, "recaptcha rejected", "error_codes", body.ErrorCodes)
	}
	return body.Success, nil
}
