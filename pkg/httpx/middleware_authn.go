package httpx

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// TokenVerifier is satisfied by *jwtx.KeyManager and *jwtx.Verifier.
type TokenVerifier interface {
	Verify(token string) (*jwtx.Claims, error)
}

// RevocationChecker reports whether a jti has been revoked.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthnMiddleware accepts only unrevoked access tokens. revoked may be nil.
// A revocation backend error fails closed.
func AuthnMiddleware(v TokenVerifier, revoked RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}
			if err := claims.Expect(jwtx.TypeAccess); err != nil {
				writeBearerError(w, "not an access token")
				return
			}

			if revoked != nil {
				isRevoked, err := revoked.IsTokenRevoked(ctx, claims.ID)
				if err != nil {
					log.Error("revocation lookup failed", "err", err)
					WriteError(w, http.StatusServiceUnavailable, "temporarily_unavailable", "Authentication backend unavailable.")
					return
				}
				if isRevoked {
					writeBearerError(w, "token revoked")
					return
				}
			}

			ctx = contextWithClaims(ctx, claims)
			ctx = slogx.WithAccount(ctx, claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must sit behind AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			if !slices.Contains(roles, c.Role) {
				slogx.FromContext(r.Context()).Warn("role denied", "required", roles)
				WriteError(w, http.StatusForbidden, "insufficient_role", "This operation requires role "+strings.Join(roles, " or ")+".")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// RFC 6750 error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
