package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/pkg/authsdk"
)

// TestLoginMeLogout walks a USER through register, login, profile and logout.
func TestLoginMeLogout(t *testing.T) {
	client := setupAuthContainer(t)

	const email, password = "traveller@skygate.test", "Traveller123!"
	registerUser(t, client, email, password)

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(t.Context(), email, "Wrong-password1", recaptchaToken)
		assertStatus(t, err, http.StatusUnauthorized, "Login with wrong password")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := client.Login(t.Context(), "nobody@skygate.test", password, recaptchaToken)
		assertStatus(t, err, http.StatusUnauthorized, "Login with unknown email")
	})

	t.Run("missing recaptcha", func(t *testing.T) {
		_, err := client.Login(t.Context(), email, password, "")
		require.Error(t, err)
	})

	res, err := client.Login(t.Context(), email, password, recaptchaToken)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.RequiresMFA)
	require.NotNil(t, res.Tokens)
	require.Equal(t, "Bearer", res.Tokens.TokenType)
	require.Positive(t, res.Tokens.ExpiresIn)

	access := res.Tokens.AccessToken

	me, err := client.Me(t.Context(), access)
	require.NoError(t, err)
	require.Equal(t, email, me.Email)
	require.Equal(t, "USER", me.Role)
	require.Equal(t, "EMAIL", me.AuthProvider)
	require.NotNil(t, me.LastLoginAt, "Successful login records last login")

	require.NoError(t, client.Logout(t.Context(), access))

	_, err = client.Me(t.Context(), access)
	assertStatus(t, err, http.StatusUnauthorized, "Me after logout")
}

// TestAdminRegistration verifies only a superadmin can create admins and that
// admins cannot manage signing keys.
func TestAdminRegistration(t *testing.T) {
	client := setupAuthContainer(t)
	super := bootstrapSuperadmin(t, client)

	const email, password = "ops@skygate.test", "Operations123!"

	admin, err := super.RegisterAdmin(t.Context(), authsdk.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Ops",
	})
	require.NoError(t, err)
	require.Equal(t, "ADMIN", admin.Role)

	adminSession, err := client.LoginSession(t.Context(), email, password, recaptchaToken, "")
	require.NoError(t, err)

	me, err := adminSession.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ADMIN", me.Role)

	_, err = adminSession.ListKeys(t.Context())
	assertStatus(t, err, http.StatusForbidden, "Admin listing keys")

	_, err = adminSession.RegisterAdmin(t.Context(), authsdk.RegisterRequest{
		Email:    "other@skygate.test",
		Password: password,
	})
	assertStatus(t, err, http.StatusForbidden, "Admin creating admins")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := super.RegisterAdmin(t.Context(), authsdk.RegisterRequest{
			Email:    email,
			Password: password,
		})
		require.Error(t, err, "Duplicate email should be rejected")
	})
}
