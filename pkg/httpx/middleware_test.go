package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/skygate/pkg/httpx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type revocations struct {
	revoked map[string]bool
	err     error
}

func (r revocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	return r.revoked[jti], r.err
}

func newKeys(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "test", NumKeys: 1})
	require.NoError(t, err)
	return km
}

func mint(t *testing.T, km *jwtx.KeyManager, typ jwtx.TokenType, role string) (string, jwtx.Claims) {
	t.Helper()
	c := jwtx.NewClaims(typ, "test", "acct-1", "a@x.com", role, time.Minute, time.Now())
	tok, err := km.Sign(c)
	require.NoError(t, err)
	return tok, c
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := httpx.ChainFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }, mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	km := newKeys(t)
	access, accessClaims := mint(t, km, jwtx.TypeAccess, "USER")
	session, _ := mint(t, km, jwtx.TypeMFASession, "USER")

	var got httpx.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpx.PrincipalFromContext(r.Context())
	})

	tests := []struct {
		name   string
		header string
		rev    revocations
		want   int
	}{
		{"missing header", "", revocations{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", revocations{}, http.StatusUnauthorized},
		{"garbage", "Bearer abc", revocations{}, http.StatusUnauthorized},
		{"mfa session token", "Bearer " + session, revocations{}, http.StatusUnauthorized},
		{"revoked", "Bearer " + access, revocations{revoked: map[string]bool{accessClaims.ID: true}}, http.StatusUnauthorized},
		{"backend down", "Bearer " + access, revocations{err: errors.New("boom")}, http.StatusServiceUnavailable},
		{"ok", "Bearer " + access, revocations{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.AuthnMiddleware(km, tt.rev)(next)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
			}
		})
	}

	require.Equal(t, "acct-1", got.AccountID)
	require.Equal(t, "USER", got.Role)
	require.Equal(t, accessClaims.ID, got.TokenID)
}

func TestRequireRole(t *testing.T) {
	h := httpx.RequireRole("SUPERADMIN")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{AccountID: "a", Role: "ADMIN"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{AccountID: "a", Role: "SUPERADMIN"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  tok ")
	tok, ok := httpx.BearerToken(req)
	require.True(t, ok)
	require.Equal(t, "tok", tok)
}
