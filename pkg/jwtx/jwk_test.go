package jwtx_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestJWKSPublishesEveryKey(t *testing.T) {
	km := newManager(t, jwtx.AlgorithmES256, 2)

	jwks := km.KeySet().JWKS()
	require.Len(t, jwks.Keys, 2)
	for _, k := range jwks.Keys {
		require.Equal(t, "EC", k.Kty)
		require.Equal(t, "P-256", k.Crv)
		require.Equal(t, "sig", k.Use)
		require.Equal(t, jwtx.AlgorithmES256, k.Alg)

		pemStr, err := k.PEM()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))
	}

	raw, err := json.Marshal(jwks)
	require.NoError(t, err)

	var decoded jwtx.JWKS
	require.NoError(t, json.Unmarshal(raw, &decoded))

	remote := jwtx.NewKeySet()
	require.NoError(t, remote.Reset(decoded))
	require.Equal(t, 2, remote.Len())
}

func TestKeySetRemove(t *testing.T) {
	km := newManager(t, jwtx.AlgorithmEdDSA, 2)
	kids := km.ActiveKIDs()

	km.KeySet().Remove(kids[0])
	km.KeySet().Remove("unknown")

	_, _, err := km.KeySet().Lookup(kids[0])
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	require.Len(t, km.KeySet().JWKS().Keys, 1)
}

func TestJWKRejectsUnknownKeyTypes(t *testing.T) {
	_, err := jwtx.JWK{Kty: "oct"}.PublicKey()
	require.Error(t, err)

	_, err = jwtx.JWK{Kty: "OKP", Crv: "X25519"}.PublicKey()
	require.Error(t, err)

	_, err = jwtx.NewJWK("k", "EdDSA", "not a key")
	require.Error(t, err)
}
