package authsdk

import (
	"context"
	"net/http"
)

// Health checks liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", "", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready checks the store and signing keys. A not-ready service answers 503.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
