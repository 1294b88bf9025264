package http

import (
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// caller is the identity proven by the access token. It is resolved once
// here and passed explicitly into services.
type caller struct {
	AccountID string
	Email     string
	Role      domain.Role
}

// callerFrom fails with 401 when AuthnMiddleware did not run or the role
// claim is not one of ours.
func callerFrom(w http.ResponseWriter, r *http.Request) (caller, bool) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok || p.AccountID == "" {
		writeFailure(w, http.StatusUnauthorized, "Authentication required")
		return caller{}, false
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("access token carries unknown role", "role", p.Role)
		writeFailure(w, http.StatusUnauthorized, "Authentication required")
		return caller{}, false
	}
	return caller{AccountID: p.AccountID, Email: p.Email, Role: role}, true
}

type MeHandler struct {
	Accounts *service.AccountService
}

// ServeHTTP handles GET /api/auth/me
//
//	@Summary		Get the current account
//	@Description	Returns the profile of the account the access token belongs to.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse
//	@Failure		401	{object}	httpx.ErrorBody			"Invalid or missing access token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Account no longer exists"
//	@Router			/api/auth/me [get]
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(w, r)
	if !ok {
		return
	}

	p, err := h.Accounts.GetProfile(r.Context(), c.AccountID, c.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		Role:          p.Role,
		AuthProvider:  p.AuthProvider,
		EmailVerified: p.EmailVerified,
		MFAEnabled:    p.MFAEnabled,
		LastLoginAt:   p.LastLoginAt,
		CreatedAt:     p.CreatedAt,
	})
}
