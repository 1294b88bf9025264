package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first SUPERADMIN. Only available when BOOTSTRAP_TOKEN is configured, and only until a superadmin exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.BootstrapRequest	true	"Bootstrap token and superadmin account"
//	@Success		201		{object}	authsdk.BootstrapResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid request body or validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid bootstrap token"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Bootstrap not enabled (no token configured)"
//	@Failure		409		{object}	authsdk.ErrorResponse	"System already bootstrapped"
//	@Router			/api/bootstrap [post]
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.BootstrapService.Token == "" {
		writeFailure(w, http.StatusNotFound, "Bootstrap endpoint is not enabled")
		return
	}

	var req authsdk.BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.BootstrapService.Bootstrap(r.Context(), req.Token, service.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	switch {
	case errors.Is(err, service.ErrBootstrapAlready):
		writeFailure(w, http.StatusConflict, "System has already been bootstrapped")
		return
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		writeFailure(w, http.StatusUnauthorized, "Invalid bootstrap token")
		return
	case errors.Is(err, service.ErrBootstrapDisabled):
		writeFailure(w, http.StatusNotFound, "Bootstrap endpoint is not enabled")
		return
	case err != nil:
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("bootstrap complete", "account_id", acct.ID)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
		Success:   true,
		Message:   "Superadmin created",
		AccountID: acct.ID,
	})
}
