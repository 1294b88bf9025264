package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

func TestBootstrap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := &BootstrapService{Store: h.store, Token: "boot-token", Now: h.clock.Now}
	reg := Registration{Email: "root@example.com", Password: "pw", Name: "Root"}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	_, err = svc.Bootstrap(ctx, "wrong", reg)
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)

	acct, err := svc.Bootstrap(ctx, "boot-token", reg)
	require.NoError(t, err)
	require.Equal(t, domain.RoleSuperadmin, acct.Role)

	done, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, done)

	_, err = svc.Bootstrap(ctx, "boot-token", Registration{Email: "second@example.com", Password: "pw"})
	require.ErrorIs(t, err, ErrBootstrapAlready)

	res, err := h.login.AuthenticateWithEmail(ctx, "root@example.com", "pw", "captcha")
	require.NoError(t, err)
	claims, err := h.tokens.VerifyAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "SUPERADMIN", claims.Role)

	disabled := &BootstrapService{Store: h.store}
	_, err = disabled.Bootstrap(ctx, "", reg)
	require.ErrorIs(t, err, ErrBootstrapDisabled)
}

func TestKeyRotationEphemeral(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := &KeyRotationService{KeyManager: h.keys, Algorithm: jwtx.AlgorithmEdDSA}

	old := h.keys.ActiveKIDs()
	require.Len(t, old, 1)
	oldToken, err := h.tokens.IssueMFASession(Identity{AccountID: "a", Role: domain.RoleUser})
	require.NoError(t, err)

	resp, err := svc.RotateKey(ctx, RotateKeyRequest{RetireExisting: true})
	require.NoError(t, err)
	require.Equal(t, 1, resp.ActiveKeys)
	require.Equal(t, old, resp.RetiredKids)
	require.NotEqual(t, old[0], resp.NewKey.Kid)

	_, err = h.keys.Verify(oldToken)
	require.NoError(t, err, "retired keys still verify")

	err = svc.RetireKey(ctx, resp.NewKey.Kid)
	require.ErrorIs(t, err, jwtx.ErrLastSigner)

	err = svc.RetireKey(ctx, "unknown")
	require.ErrorIs(t, err, ErrKeyNotFound)

	keys, err := svc.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.True(t, keys[0].Active)
}

func TestKeyRotationPersistent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sealer, err := cryptox.NewSealer([]byte("keys"))
	require.NoError(t, err)

	svc := &KeyRotationService{
		Store:      h.store,
		KeyManager: h.keys,
		Sealer:     sealer,
		Algorithm:  jwtx.AlgorithmEdDSA,
		Now:        h.clock.Now,
	}

	first, err := svc.RotateKey(ctx, RotateKeyRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, first.ActiveKeys)

	second, err := svc.RotateKey(ctx, RotateKeyRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.RetireKey(ctx, first.NewKey.Kid))

	stored, err := h.store.SigningKeys().GetSigningKeyByKid(ctx, first.NewKey.Kid)
	require.NoError(t, err)
	require.NotNil(t, stored.RetiredAt)

	keys, err := svc.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	for _, k := range keys {
		require.Equal(t, k.Kid == second.NewKey.Kid, k.Active, k.Kid)
	}
}

func TestHousekeepingRunOnce(t *testing.T) {
	h := newHarness(t)
	hk := NewHousekeepingService(h.store, nil, slogx.Discard(), 0)
	hk.Now = h.clock.Now
	require.Equal(t, 5, hk.RunOnce(context.Background()))

	broken := NewHousekeepingService(h.store, brokenRevocations{}, slog.New(slog.DiscardHandler), 0)
	require.Equal(t, 4, broken.RunOnce(context.Background()))
}

func TestGetProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createAccount(t, domain.RoleUser, "me@example.com", "pw")
	svc := &AccountService{Store: h.store}

	p, err := svc.GetProfile(ctx, acct.ID, acct.Role)
	require.NoError(t, err)
	require.Equal(t, "me@example.com", p.Email)
	require.Equal(t, "USER", p.Role)
	require.Equal(t, "EMAIL", p.AuthProvider)
	require.False(t, p.MFAEnabled)

	_, err = svc.GetProfile(ctx, acct.ID, domain.RoleAdmin)
	requireKind(t, err, KindUserNotFound)
}
