package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/redis"
)

func TestRevocationsAgainstRedisContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := redis.NewClient(ctx, redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	r := redis.NewRevocations(client, "it:")
	require.NoError(t, r.RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute)))

	revoked, err := r.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	n, err := r.IncrementMFAAttempts(ctx, "session-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
