package httpx

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeySubject ctxKey = "subject"
	ctxKeyClaims  ctxKey = "claims"
)

// Principal is the identity an access token proves.
type Principal struct {
	AccountID string
	Email     string
	Role      string
	TokenID   string
}

func contextWithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, c.Subject)
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns the verified access-token claims, if any.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return c, ok
}

// PrincipalFromContext is the identity handlers thread into services.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	return Principal{AccountID: c.Subject, Email: c.Email, Role: c.Role, TokenID: c.ID}, true
}

// WithPrincipal is for tests of handlers sitting behind AuthnMiddleware.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return contextWithClaims(ctx, &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: p.AccountID, ID: p.TokenID},
		Email:            p.Email,
		Role:             p.Role,
		Type:             jwtx.TypeAccess,
	})
}
