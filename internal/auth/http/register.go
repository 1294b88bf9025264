package http

import (
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
)

// RegistrationHandler serves sign-up and email verification.
type RegistrationHandler struct {
	Registration *service.RegistrationService
	Verification *service.EmailVerificationService
}

func registration(req authsdk.RegisterRequest) service.Registration {
	return service.Registration{Email: req.Email, Password: req.Password, Name: req.Name}
}

func registerResponse(a domain.Account, msg string) authsdk.RegisterResponse {
	return authsdk.RegisterResponse{
		Success:       true,
		Message:       msg,
		AccountID:     a.ID,
		Role:          a.Role.String(),
		EmailVerified: a.EmailVerified,
	}
}

// HandleRegisterUser handles POST /api/register/user
//
//	@Summary		Register a user
//	@Description	Creates an unverified USER account and mails a verification link.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"New account"
//	@Success		201		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request or email already registered"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Failed reCAPTCHA"
//	@Router			/api/register/user [post]
func (h *RegistrationHandler) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.Registration.RegisterUser(r.Context(), registration(req), req.RecaptchaToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, registerResponse(acct, "Registration successful. Check your email to verify your account."))
}

// HandleRegisterAdmin handles POST /api/register/admin
//
//	@Summary		Register an admin
//	@Description	Creates a verified ADMIN account. Requires a SUPERADMIN access token.
//	@Tags			Registration
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"New account"
//	@Success		201		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request or email already registered"
//	@Failure		403		{object}	httpx.ErrorBody			"Caller is not a SUPERADMIN"
//	@Router			/api/register/admin [post]
func (h *RegistrationHandler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.Registration.RegisterAdmin(r.Context(), registration(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, registerResponse(acct, "Admin registered"))
}

// HandleVerifyEmail handles GET /api/email/verify
//
//	@Summary		Verify an email address
//	@Description	Consumes the token from a verification link.
//	@Tags			Registration
//	@Produce		json
//	@Param			token	query		string	true	"Verification token"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid, used or expired token"
//	@Router			/api/email/verify [get]
func (h *RegistrationHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeFailure(w, http.StatusBadRequest, "Field 'token' is required")
		return
	}

	if err := h.Verification.Verify(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: service.MsgEmailVerified})
}

// HandleResend handles POST /api/email/resend-verification
//
//	@Summary		Resend a verification link
//	@Description	Mails a new link to an unverified user. The answer is the same whether or not anything was sent.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResendVerificationRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Router			/api/email/resend-verification [post]
func (h *RegistrationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.Verification.Resend(r.Context(), req.Email)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: service.MsgVerificationResent})
}
