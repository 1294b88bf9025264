package http

import (
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
)

// LoginHandler serves primary authentication, MFA completion, refresh and
// logout.
type LoginHandler struct {
	Login *service.LoginOrchestrator
}

func authResponse(res *domain.AuthResult) authsdk.AuthResponse {
	out := authsdk.AuthResponse{
		Success:         true,
		Message:         res.Message,
		RequiresMFA:     res.RequiresMFA,
		MFASessionToken: res.MFASessionToken,
	}
	if res.Tokens != nil {
		out.Tokens = tokenPair(res.Tokens)
	}
	return out
}

func tokenPair(p *domain.TokenPair) *authsdk.TokenPair {
	return &authsdk.TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}

// HandleLogin handles POST /api/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Searches users, then admins, then superadmins for the email. Accounts with MFA enabled receive an MFA session token instead of tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse	"Tokens, or an MFA challenge"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials, failed reCAPTCHA or locked account"
//	@Failure		429		{object}	httpx.ErrorBody			"Rate limited"
//	@Router			/api/auth/login [post]
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Login.AuthenticateWithEmail(r.Context(), req.Email, req.Password, req.RecaptchaToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleGoogle handles POST /api/auth/login/google
//
//	@Summary		Log in with Google
//	@Description	Exchanges a Google OAuth access token. Creates a USER account on first login.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SocialLoginRequest	true	"Google access token"
//	@Success		200		{object}	authsdk.AuthResponse		"Tokens, or an MFA challenge"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid token, failed reCAPTCHA or email taken by another provider"
//	@Router			/api/auth/login/google [post]
func (h *LoginHandler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, domain.ProviderGoogle)
}

// HandleFacebook handles POST /api/auth/login/facebook
//
//	@Summary		Log in with Facebook
//	@Description	Exchanges a Facebook access token. Creates a USER account on first login.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SocialLoginRequest	true	"Facebook access token"
//	@Success		200		{object}	authsdk.AuthResponse		"Tokens, or an MFA challenge"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid token, failed reCAPTCHA or email taken by another provider"
//	@Router			/api/auth/login/facebook [post]
func (h *LoginHandler) HandleFacebook(w http.ResponseWriter, r *http.Request) {
	h.social(w, r, domain.ProviderFacebook)
}

func (h *LoginHandler) social(w http.ResponseWriter, r *http.Request, p domain.AuthProvider) {
	var req authsdk.SocialLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Login.AuthenticateWithSocial(r.Context(), p.String(), req.AccessToken, req.RecaptchaToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleVerifyMFA handles POST /api/auth/verify-mfa
//
//	@Summary		Complete an MFA login
//	@Description	Trades the MFA session token from a login and a TOTP or backup code for tokens. A wrong code may be retried until the session expires or five attempts fail.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyMFARequest	true	"Session token and code"
//	@Success		200		{object}	authsdk.AuthResponse		"Tokens"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid code or expired session"
//	@Router			/api/auth/verify-mfa [post]
func (h *LoginHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyMFARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Login.VerifyMFA(r.Context(), req.SessionToken, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleRefresh handles POST /api/auth/refresh
//
//	@Summary		Rotate a refresh token
//	@Description	Revokes the presented refresh token and issues a new pair. Presenting an already rotated token revokes every refresh token of the account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenPair		"New tokens"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid refresh token"
//	@Router			/api/auth/refresh [post]
func (h *LoginHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.Login.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenPair(pair))
}

// HandleLogout handles POST /api/auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the bearer token, which may be an access or a refresh token. Always answers 200.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse
//	@Router			/api/auth/logout [post]
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if tok, ok := httpx.BearerToken(r); ok {
		h.Login.Logout(r.Context(), tok)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: "Logged out"})
}
