package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestErrorDecoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Invalid email or password"})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_token",
			"error_description": "missing bearer token",
		})
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	_, err := c.Login(ctx, "a@x.com", "pw", "captcha")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid email or password", apiErr.Message)

	_, err = c.Me(ctx, "")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "missing bearer token", apiErr.Message)

	_, err = c.Health(ctx)
	require.True(t, IsStatus(err, http.StatusBadGateway))
	require.False(t, IsStatus(err, http.StatusOK))
}

func TestLoginSessionWithMFA(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "captcha", req.RecaptchaToken)
		writeJSON(w, http.StatusOK, AuthResponse{
			Success:         true,
			Message:         "MFA code required",
			RequiresMFA:     true,
			MFASessionToken: "mfa-session",
		})
	})
	mux.HandleFunc("POST /api/auth/verify-mfa", func(w http.ResponseWriter, r *http.Request) {
		var req VerifyMFARequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.SessionToken != "mfa-session" || req.Code != "123456" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Invalid MFA code"})
			return
		}
		writeJSON(w, http.StatusOK, AuthResponse{
			Success: true,
			Tokens:  &TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900},
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, ProfileResponse{ID: "acct-1", Email: "a@x.com", Role: "USER"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.LoginSession(ctx, "a@x.com", "pw", "captcha", "")
	require.ErrorContains(t, err, "MFA code required")

	_, err = c.LoginSession(ctx, "a@x.com", "pw", "captcha", "000000")
	require.True(t, IsStatus(err, http.StatusUnauthorized))

	s, err := c.LoginSession(ctx, "a@x.com", "pw", "captcha", "123456")
	require.NoError(t, err)
	require.Equal(t, "refresh", s.RefreshToken())

	me, err := s.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "acct-1", me.ID)
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	var refreshes atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "refresh-1", req.RefreshToken)
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /api/mfa/status", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, MFAStatusResponse{MFAEnabled: true})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MessageResponse{Success: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	// ExpiresIn below the refresh skew means the token is already stale.
	s := c.NewSession(&TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 10})

	enabled, err := s.MFAStatus(ctx)
	require.NoError(t, err)
	require.True(t, enabled)
	require.Equal(t, "access-2", s.AccessToken())

	_, err = s.MFAStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())

	require.NoError(t, s.Logout(ctx))
	require.Empty(t, s.AccessToken())

	_, err = s.Me(ctx)
	require.ErrorIs(t, err, ErrNoRefreshToken)
}
