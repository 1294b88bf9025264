package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const (
	DefaultGoogleUserInfoURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	DefaultFacebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

// userInfoClient calls a userinfo endpoint with the caller's access token
// attached as a bearer credential.
type userInfoClient struct {
	name     string
	endpoint string
	base     *http.Client
}

func (c *userInfoClient) fetch(ctx context.Context, accessToken string, into any) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrInvalidToken
	}

	// oauth2 picks the base transport up from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: userinfo request: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		return ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: userinfo status %s", c.name, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%s: decode userinfo: %w", c.name, err)
	}
	return nil
}

// Google resolves Google OAuth access tokens through the OpenID userinfo
// endpoint.
type Google struct {
	c userInfoClient
}

func NewGoogle(endpoint string, client *http.Client) *Google {
	if endpoint == "" {
		endpoint = DefaultGoogleUserInfoURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &Google{c: userInfoClient{name: "google", endpoint: endpoint, base: client}}
}

func (g *Google) Identify(ctx context.Context, accessToken string) (Identity, error) {
	var body struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := g.c.fetch(ctx, accessToken, &body); err != nil {
		return Identity{}, err
	}
	if body.Sub == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ProviderID: body.Sub, Email: body.Email, Name: body.Name}, nil
}

// Facebook resolves Facebook access tokens through the Graph API.
type Facebook struct {
	c userInfoClient
}

func NewFacebook(endpoint string, client *http.Client) *Facebook {
	if endpoint == "" {
		endpoint = DefaultFacebookUserInfoURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &Facebook{c: userInfoClient{name: "facebook", endpoint: endpoint, base: client}}
}

func (f *Facebook) Identify(ctx context.Context, accessToken string) (Identity, error) {
	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := f.c.fetch(ctx, accessToken, &body); err != nil {
		return Identity{}, err
	}
	if body.ID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ProviderID: body.ID, Email: body.Email, Name: body.Name}, nil
}
