package http

import (
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// MFAHandler handles all MFA management endpoints. Every route sits behind
// AuthnMiddleware and acts on the caller's own (account, role).
type MFAHandler struct {
	MFA *service.MFAManager
}

// HandleSetup handles POST /api/mfa/setup
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a TOTP secret and 10 backup codes. Repeating setup before validation replaces the pending secret. Fails once MFA is enabled.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFASetupResponse	"Secret, QR code URL and backup codes (shown once)"
//	@Failure		400	{object}	authsdk.ErrorResponse		"MFA already enabled"
//	@Failure		401	{object}	httpx.ErrorBody				"Invalid or missing access token"
//	@Router			/api/mfa/setup [post]
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}

	setup, err := h.MFA.SetupMFA(r.Context(), c.AccountID, c.Role, c.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFASetupResponse{
		Secret:      setup.Secret,
		QRCodeURL:   setup.QRCodeURL,
		OTPAuthURL:  setup.OTPAuthURL,
		BackupCodes: setup.BackupCodes,
		MFAEnabled:  setup.MFAEnabled,
	})
}

// HandleValidate handles POST /api/mfa/validate
//
//	@Summary		Finish TOTP enrollment
//	@Description	Enables MFA when the code matches the pending secret. A wrong code answers valid=false and may be retried.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAValidateRequest	true	"Current TOTP code"
//	@Success		200		{object}	authsdk.MFAValidateResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"No pending setup"
//	@Router			/api/mfa/validate [post]
func (h *MFAHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req authsdk.MFAValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := h.MFA.VerifyAndEnableMFA(r.Context(), c.AccountID, c.Role, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !valid {
		slogx.FromContext(r.Context()).Warn("mfa enrollment code rejected", "account_id", c.AccountID)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAValidateResponse{Success: true, Valid: valid})
}

// HandleDisable handles POST /api/mfa/disable
//
//	@Summary		Disable MFA
//	@Description	Removes the TOTP secret and backup codes. Requires a current TOTP or backup code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAConfirmRequest	true	"Current TOTP or backup code"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"MFA not configured"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid code"
//	@Router			/api/mfa/disable [post]
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req authsdk.MFAConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.MFA.DisableWithCode(r.Context(), c.AccountID, c.Role, req.ConfirmationCode); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: "MFA disabled"})
}

// HandleStatus handles GET /api/mfa/status
//
//	@Summary		Get MFA status
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAStatusResponse
//	@Router			/api/mfa/status [get]
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}

	st, err := h.MFA.GetMFAStatus(r.Context(), c.AccountID, c.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAStatusResponse{MFAEnabled: st.MFAEnabled})
}

// HandleRegenerateBackupCodes handles POST /api/mfa/regenerate-backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code. The TOTP secret is kept. Requires a current TOTP or backup code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAConfirmRequest	true	"Current TOTP or backup code"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	authsdk.ErrorResponse		"MFA not configured"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid code"
//	@Router			/api/mfa/regenerate-backup-codes [post]
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req authsdk.MFAConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	codes, err := h.MFA.RegenerateWithCode(r.Context(), c.AccountID, c.Role, req.ConfirmationCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{Success: true, BackupCodes: codes})
}
