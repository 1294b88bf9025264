package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMFALifecycle enrolls a user in TOTP, logs in through the challenge with
// both a TOTP and a backup code, then regenerates codes and disables MFA.
func TestMFALifecycle(t *testing.T) {
	client := setupAuthContainer(t)

	const email, password = "frequent.flyer@skygate.test", "FrequentFlyer1!"
	registerUser(t, client, email, password)

	session, err := client.LoginSession(t.Context(), email, password, recaptchaToken, "")
	require.NoError(t, err)

	setup, err := session.SetupMFA(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.NotEmpty(t, setup.BackupCodes)
	require.False(t, setup.MFAEnabled, "MFA stays pending until the first code validates")

	t.Run("setup twice while pending", func(t *testing.T) {
		again, err := session.SetupMFA(t.Context())
		require.NoError(t, err, "Pending setups can be restarted")
		setup = again
	})

	enabled, err := session.MFAStatus(t.Context())
	require.NoError(t, err)
	require.False(t, enabled)

	valid, err := session.ValidateMFA(t.Context(), currentCode(t, setup.Secret))
	require.NoError(t, err)
	require.True(t, valid)

	enabled, err = session.MFAStatus(t.Context())
	require.NoError(t, err)
	require.True(t, enabled)

	t.Run("login requires a code", func(t *testing.T) {
		res, err := client.Login(t.Context(), email, password, recaptchaToken)
		require.NoError(t, err)
		require.True(t, res.RequiresMFA)
		require.NotEmpty(t, res.MFASessionToken)
		require.Nil(t, res.Tokens)

		_, err = client.VerifyMFA(t.Context(), res.MFASessionToken, "000000x")
		assertStatus(t, err, http.StatusUnauthorized, "VerifyMFA with a bad code")

		done, err := client.VerifyMFA(t.Context(), res.MFASessionToken, currentCode(t, setup.Secret))
		require.NoError(t, err)
		require.NotNil(t, done.Tokens)
	})

	t.Run("login with a backup code", func(t *testing.T) {
		code := setup.BackupCodes[0]

		s, err := client.LoginSession(t.Context(), email, password, recaptchaToken, code)
		require.NoError(t, err)
		_, err = s.Me(t.Context())
		require.NoError(t, err)

		_, err = client.LoginSession(t.Context(), email, password, recaptchaToken, code)
		require.Error(t, err, "Backup codes are single use")
	})

	t.Run("mfa session token is not an access token", func(t *testing.T) {
		res, err := client.Login(t.Context(), email, password, recaptchaToken)
		require.NoError(t, err)

		_, err = client.Me(t.Context(), res.MFASessionToken)
		assertStatus(t, err, http.StatusUnauthorized, "Me with MFA session token")
	})

	codes, err := session.RegenerateBackupCodes(t.Context(), currentCode(t, setup.Secret))
	require.NoError(t, err)
	require.Len(t, codes, len(setup.BackupCodes))
	require.NotContains(t, codes, setup.BackupCodes[1], "Old backup codes are replaced")

	err = session.DisableMFA(t.Context(), "not-a-code")
	assertStatus(t, err, http.StatusUnauthorized, "Disable with a bad code")

	require.NoError(t, session.DisableMFA(t.Context(), codes[0]))

	enabled, err = session.MFAStatus(t.Context())
	require.NoError(t, err)
	require.False(t, enabled)

	_, err = client.LoginSession(t.Context(), email, password, recaptchaToken, "")
	require.NoError(t, err, "Login no longer asks for a code")
}
