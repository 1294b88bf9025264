package auth_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit verifies strict limiting on login attempts for a single
// email address with the default limits.
func TestLoginRateLimit(t *testing.T) {
	client := setupAuthContainerWithDefaultRateLimits(t)

	const email = "target@skygate.test"

	// StrictLimit allows 5 requests per minute.
	for i := range 5 {
		_, err := client.Login(t.Context(), email, "Wrong-password1", recaptchaToken)
		assertStatus(t, err, http.StatusUnauthorized, fmt.Sprintf("Attempt %d", i+1))
	}

	_, err := client.Login(t.Context(), email, "Wrong-password1", recaptchaToken)
	assertStatus(t, err, http.StatusTooManyRequests, "Sixth attempt")
}

// TestHealthNotRateLimited verifies monitoring endpoints tolerate polling.
func TestHealthNotRateLimited(t *testing.T) {
	client := setupAuthContainerWithDefaultRateLimits(t)

	for range 30 {
		health, err := client.Health(t.Context())
		assertHealthy(t, health, err)
	}

	_, err := client.JWKS(t.Context())
	require.NoError(t, err)
}
