package authsdk

import (
	"context"
	"net/http"
)

// Bootstrap creates the first SUPERADMIN. It fails with 409 once one exists
// and with 401 when req.Token does not match the server's BOOTSTRAP_TOKEN.
func (c *Client) Bootstrap(ctx context.Context, req BootstrapRequest) (*BootstrapResponse, error) {
	var out BootstrapResponse
	if err := c.do(ctx, http.MethodPost, "/api/bootstrap", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListKeys, RotateKey and RetireKey need a SUPERADMIN access token.

func (c *Client) ListKeys(ctx context.Context, accessToken string) ([]SigningKeyInfo, error) {
	var out ListKeysResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/keys", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

func (c *Client) RotateKey(ctx context.Context, accessToken string, retireExisting bool) (*RotateKeyResponse, error) {
	var out RotateKeyResponse
	err := c.do(ctx, http.MethodPost, "/api/admin/keys/rotate", accessToken,
		RotateKeyRequest{RetireExisting: retireExisting}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RetireKey(ctx context.Context, accessToken, kid string) error {
	return c.do(ctx, http.MethodPost, "/api/admin/keys/"+kid+"/retire", accessToken, nil, nil)
}
