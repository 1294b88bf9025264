package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKeyRotation rotates the signing key and checks that tokens signed by the
// retired key keep verifying during the grace period.
func TestKeyRotation(t *testing.T) {
	client := setupAuthContainer(t)
	super := bootstrapSuperadmin(t, client)

	keys, err := super.ListKeys(t.Context())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	original := keys[0].Kid
	require.True(t, keys[0].Active)

	t.Run("cannot retire the last key", func(t *testing.T) {
		err := super.RetireKey(t.Context(), original)
		assertStatus(t, err, http.StatusBadRequest, "Retiring the only signing key")
	})

	t.Run("unknown kid", func(t *testing.T) {
		err := super.RetireKey(t.Context(), "no-such-kid")
		assertStatus(t, err, http.StatusNotFound, "Retiring an unknown key")
	})

	oldToken := super.AccessToken()

	rotated, err := super.RotateKey(t.Context(), true)
	require.NoError(t, err)
	require.NotEqual(t, original, rotated.NewKey.Kid)
	require.Equal(t, []string{original}, rotated.RetiredKids)
	require.Equal(t, 1, rotated.ActiveKeys)

	jwks, err := client.JWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 2, "Retired key stays published for verification")

	_, err = client.Me(t.Context(), oldToken)
	require.NoError(t, err, "Tokens signed by a retired key still verify")

	fresh, err := client.LoginSession(t.Context(), superEmail, superPassword, recaptchaToken, "")
	require.NoError(t, err)

	keys, err = fresh.ListKeys(t.Context())
	require.NoError(t, err)
	require.Len(t, keys, 2)
	for _, k := range keys {
		if k.Kid == original {
			require.False(t, k.Active)
			require.NotNil(t, k.RetiredAt)
		} else {
			require.True(t, k.Active)
		}
	}
}
