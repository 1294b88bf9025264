package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/skygate/pkg/authsdk"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
// Retired keys stay listed until their grace period ends.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify every token the service signs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(authsdk.JWKSResponse(keys.JWKS()))
	}
}
