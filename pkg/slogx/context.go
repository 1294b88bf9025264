package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or slog's default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithAccount tags the context logger with the authenticated identity so
// every later line of the request carries it.
func WithAccount(ctx context.Context, accountID, role string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("account_id", accountID, "role", role))
}
