package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/redis"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRevokeTokenExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := redis.NewRevocations(client, "test:")

	revoked, err := r.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, r.RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute)))

	revoked, err = r.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
	require.True(t, mr.Exists("test:revoked:jti-1"))

	mr.FastForward(2 * time.Minute)

	revoked, err = r.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeTokenKeepsLongerExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := redis.NewRevocations(client, "test:")

	require.NoError(t, r.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, r.RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute)))

	require.Greater(t, mr.TTL("test:revoked:jti-1"), 50*time.Minute)
}

func TestIncrementMFAAttempts(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := redis.NewRevocations(client, "")

	exp := time.Now().Add(5 * time.Minute)
	for want := 1; want <= 5; want++ {
		n, err := r.IncrementMFAAttempts(ctx, "session-1", exp)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
	require.Greater(t, mr.TTL("skygate:mfa_attempts:session-1"), time.Duration(0))

	mr.FastForward(6 * time.Minute)

	n, err := r.IncrementMFAAttempts(ctx, "session-1", exp)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := redis.NewRevocations(client, "")

	mr.Close()

	_, err := r.IsTokenRevoked(ctx, "jti-1")
	require.ErrorIs(t, err, redis.ErrBackend)
	require.ErrorIs(t, r.RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute)), redis.ErrBackend)
	require.ErrorIs(t, r.Ping(ctx), redis.ErrBackend)
}
