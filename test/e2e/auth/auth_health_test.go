package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint works before bootstrap.
func TestLivezEndpoint(t *testing.T) {
	client := setupAuthContainer(t)

	health, err := client.Health(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies the readiness check reports its dependencies.
func TestReadyzEndpoint(t *testing.T) {
	client := setupAuthContainer(t)

	health, err := client.Ready(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
}

// TestJWKSEndpoint verifies keys are published before bootstrap.
func TestJWKSEndpoint(t *testing.T) {
	client := setupAuthContainer(t)

	jwks, err := client.JWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1, "AUTH_NUM_KEYS=1 publishes one key")

	key := jwks.Keys[0]
	require.Equal(t, "EdDSA", key.Alg)
	require.Equal(t, "OKP", key.Kty)
	require.NotEmpty(t, key.Kid)
	t.Logf("Key ID: %s, Algorithm: %s", key.Kid, key.Alg)
}
