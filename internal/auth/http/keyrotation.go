package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/skygate/internal/auth/service"
	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

// KeyRotationHandler handles key rotation operations for both ephemeral and
// persistent modes. Every route requires a SUPERADMIN.
type KeyRotationHandler struct {
	KeyRotationService *service.KeyRotationService
}

func sdkKey(k service.KeyInfo) authsdk.SigningKeyInfo {
	return authsdk.SigningKeyInfo{
		Kid:       k.Kid,
		Algorithm: k.Algorithm,
		Active:    k.Active,
		CreatedAt: k.CreatedAt,
		RetiredAt: k.RetiredAt,
		ExpiresAt: k.ExpiresAt,
	}
}

// HandleRotate handles POST /api/admin/keys/rotate
//
//	@Summary		Rotate signing keys
//	@Description	Generate a new signing key and optionally retire existing keys (works in both ephemeral and persistent modes)
//	@Tags			Keys
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RotateKeyRequest	false	"Rotation options"
//	@Success		200		{object}	authsdk.RotateKeyResponse
//	@Failure		401		{object}	httpx.ErrorBody			"Unauthorized"
//	@Failure		403		{object}	httpx.ErrorBody			"Forbidden - requires SUPERADMIN"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Security		BearerAuth
//	@Router			/api/admin/keys/rotate [post]
func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RotateKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.KeyRotationService.RotateKey(r.Context(), service.RotateKeyRequest{
		RetireExisting: req.RetireExisting,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		NewKey:      sdkKey(resp.NewKey),
		RetiredKids: resp.RetiredKids,
		ActiveKeys:  resp.ActiveKeys,
	})
}

// HandleListKeys handles GET /api/admin/keys
//
//	@Summary		List signing keys
//	@Description	Lists stored keys that can still verify in persistent mode, and the in-memory signers in ephemeral mode.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{object}	authsdk.ListKeysResponse
//	@Failure		401	{object}	httpx.ErrorBody	"Unauthorized"
//	@Failure		403	{object}	httpx.ErrorBody	"Forbidden - requires SUPERADMIN"
//	@Security		BearerAuth
//	@Router			/api/admin/keys [get]
func (h *KeyRotationHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.KeyRotationService.ListSigningKeys(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]authsdk.SigningKeyInfo, len(keys))
	for i, k := range keys {
		out[i] = sdkKey(k)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListKeysResponse{Keys: out})
}

// HandleRetireKey handles POST /api/admin/keys/{kid}/retire
//
//	@Summary		Retire a signing key
//	@Description	Stops a key from signing. It keeps verifying until its grace period ends. The last active key cannot be retired.
//	@Tags			Keys
//	@Produce		json
//	@Param			kid	path		string	true	"Key ID"
//	@Success		200	{object}	authsdk.MessageResponse
//	@Failure		400	{object}	authsdk.ErrorResponse	"Last active key"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Unknown key"
//	@Security		BearerAuth
//	@Router			/api/admin/keys/{kid}/retire [post]
func (h *KeyRotationHandler) HandleRetireKey(w http.ResponseWriter, r *http.Request) {
	kid := r.PathValue("kid")

	err := h.KeyRotationService.RetireKey(r.Context(), kid)
	switch {
	case errors.Is(err, service.ErrKeyNotFound):
		writeFailure(w, http.StatusNotFound, "Signing key not found")
		return
	case errors.Is(err, jwtx.ErrLastSigner):
		writeFailure(w, http.StatusBadRequest, "Cannot retire the last active signing key")
		return
	case err != nil:
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Success: true, Message: "Key " + kid + " retired"})
}
