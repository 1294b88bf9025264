package authsdk

import (
	"context"
	"net/http"
)

// SetupMFA starts (or restarts an abandoned) TOTP enrollment.
func (c *Client) SetupMFA(ctx context.Context, accessToken string) (*MFASetupResponse, error) {
	var out MFASetupResponse
	if err := c.do(ctx, http.MethodPost, "/api/mfa/setup", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateMFA finishes enrollment. A wrong code is not an error; it answers
// Valid=false.
func (c *Client) ValidateMFA(ctx context.Context, accessToken, code string) (*MFAValidateResponse, error) {
	var out MFAValidateResponse
	if err := c.do(ctx, http.MethodPost, "/api/mfa/validate", accessToken, MFAValidateRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableMFA requires a current TOTP or backup code.
func (c *Client) DisableMFA(ctx context.Context, accessToken, confirmationCode string) error {
	return c.do(ctx, http.MethodPost, "/api/mfa/disable", accessToken, MFAConfirmRequest{ConfirmationCode: confirmationCode}, nil)
}

func (c *Client) MFAStatus(ctx context.Context, accessToken string) (*MFAStatusResponse, error) {
	var out MFAStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/mfa/status", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegenerateBackupCodes replaces every backup code. The TOTP secret is kept.
func (c *Client) RegenerateBackupCodes(ctx context.Context, accessToken, confirmationCode string) ([]string, error) {
	var out BackupCodesResponse
	err := c.do(ctx, http.MethodPost, "/api/mfa/regenerate-backup-codes", accessToken,
		MFAConfirmRequest{ConfirmationCode: confirmationCode}, &out)
	if err != nil {
		return nil, err
	}
	return out.BackupCodes, nil
}
