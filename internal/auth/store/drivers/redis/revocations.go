// Package redis implements store.Revocations on redis so several service
// instances share one denylist. Keys expire with the token they describe.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/skygate/internal/auth/store"
)

// ErrBackend wraps every failure talking to redis.
var ErrBackend = errors.New("redis: backend unavailable")

const (
	defaultPrefix = "skygate:"

	revokedKey  = "revoked:"
	attemptsKey = "mfa_attempts:"
)

var _ store.Revocations = (*Revocations)(nil)

type Revocations struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewClient dials redis and pings it once.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return client, nil
}

func NewRevocations(client redis.UniversalClient, prefix string) *Revocations {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Revocations{client: client, prefix: prefix, now: time.Now}
}

func (r *Revocations) key(kind, jti string) string {
	return r.prefix + kind + jti
}

// ttl never returns less than a second so an already expired token still
// lands in the denylist briefly.
func (r *Revocations) ttl(expiresAt time.Time) time.Duration {
	return max(expiresAt.Sub(r.now()), time.Second)
}

func (r *Revocations) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	key := r.key(revokedKey, jti)
	ttl := r.ttl(expiresAt)

	// Keep the longer of the existing and new expiry.
	current, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if current > ttl {
		return nil
	}
	if err := r.client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (r *Revocations) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(revokedKey, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return n > 0, nil
}

func (r *Revocations) IncrementMFAAttempts(ctx context.Context, jti string, expiresAt time.Time) (int, error) {
	key := r.key(attemptsKey, jti)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.ttl(expiresAt)).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	return int(count), nil
}

// DeleteExpiredRevocations is a no-op; redis expires keys itself.
func (r *Revocations) DeleteExpiredRevocations(ctx context.Context, now time.Time) error {
	return nil
}

// Ping reports whether redis is reachable.
func (r *Revocations) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}
