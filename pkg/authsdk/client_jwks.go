package authsdk

import (
	"context"
	"net/http"
)

// JWKS fetches the public keys that verify every token the service signs.
func (c *Client) JWKS(ctx context.Context) (*JWKSResponse, error) {
	var jwks JWKSResponse
	if err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, &jwks); err != nil {
		return nil, err
	}
	return &jwks, nil
}
