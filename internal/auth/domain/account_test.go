package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole(" admin ")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, r)

	_, err = domain.ParseRole("ROOT")
	require.Error(t, err)
}

func TestParseAuthProvider(t *testing.T) {
	p, err := domain.ParseAuthProvider("google")
	require.NoError(t, err)
	require.Equal(t, domain.ProviderGoogle, p)

	_, err = domain.ParseAuthProvider("GITHUB")
	require.Error(t, err)
}

func TestOneTimeTokenUsable(t *testing.T) {
	now := time.Now()
	tok := domain.OneTimeToken{ExpiresAt: now.Add(time.Minute)}
	require.True(t, tok.Usable(now))

	tok.Used = true
	require.False(t, tok.Usable(now))

	tok = domain.OneTimeToken{ExpiresAt: now}
	require.False(t, tok.Usable(now), "expiry instant is already unusable")
}
