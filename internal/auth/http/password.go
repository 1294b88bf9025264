package http

import (
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
)

type PasswordHandler struct {
	Reset *service.PasswordResetManager
}

// HandleForgot handles POST /api/auth/forgot-password
//
//	@Summary		Request a password reset link
//	@Description	Mails a reset link when the email belongs to an account. The answer is the same either way.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Router			/api/auth/forgot-password [post]
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.Reset.RequestPasswordReset(r.Context(), req.Email)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: service.MsgResetRequested})
}

// HandleReset handles POST /api/auth/reset-password
//
//	@Summary		Reset a password
//	@Description	Consumes a reset token. Tokens are single use and expire after an hour. Resetting unlocks the account and signs out every session.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Passwords differ or token invalid, used or expired"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Account no longer exists"
//	@Router			/api/auth/reset-password [post]
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.Reset.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: service.MsgResetConfirmed})
}
