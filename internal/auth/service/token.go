package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/idx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const (
	// MaxMFAAttempts is how many wrong codes one MFA session tolerates.
	MaxMFAAttempts = 5

	tokenTypeBearer = "Bearer"
)

// TokenSigner signs and verifies JWTs. *jwtx.KeyManager satisfies it.
type TokenSigner interface {
	Sign(claims jwtx.Claims) (string, error)
	Verify(token string) (*jwtx.Claims, error)
}

// Identity is the subject every token is bound to.
type Identity struct {
	AccountID string
	Email     string
	Role      domain.Role
}

func identityOf(a domain.Account) Identity {
	return Identity{AccountID: a.ID, Email: a.Email, Role: a.Role}
}

// TokenIssuer mints and revokes access, refresh and MFA session tokens.
// Refresh tokens are persisted by jti; other tokens are revoked through the
// denylist in Revocations.
type TokenIssuer struct {
	Signer      TokenSigner
	Store       store.Store
	Revocations store.Revocations
	Issuer      string

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MFASessionTTL time.Duration

	Now func() time.Time
}

func (s *TokenIssuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenIssuer) ttl(typ jwtx.TokenType) time.Duration {
	switch typ {
	case jwtx.TypeAccess:
		if s.AccessTTL > 0 {
			return s.AccessTTL
		}
		return jwtx.DefaultAccessTokenTTL
	case jwtx.TypeRefresh:
		if s.RefreshTTL > 0 {
			return s.RefreshTTL
		}
		return jwtx.DefaultRefreshTokenTTL
	default:
		if s.MFASessionTTL > 0 {
			return s.MFASessionTTL
		}
		return jwtx.DefaultMFASessionTTL
	}
}

func (s *TokenIssuer) sign(typ jwtx.TokenType, id Identity, now time.Time) (string, jwtx.Claims, error) {
	claims := jwtx.NewClaims(typ, s.Issuer, id.AccountID, id.Email, string(id.Role), s.ttl(typ), now)
	tok, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	metrics.TokensIssued.WithLabelValues(string(typ)).Inc()
	return tok, claims, nil
}

// IssueTokens mints an access and refresh pair and records the refresh jti.
func (s *TokenIssuer) IssueTokens(ctx context.Context, id Identity) (*domain.TokenPair, error) {
	return s.issueTokens(ctx, s.Store, id)
}

func (s *TokenIssuer) issueTokens(ctx context.Context, st store.Store, id Identity) (*domain.TokenPair, error) {
	now := s.now()

	access, _, err := s.sign(jwtx.TypeAccess, id, now)
	if err != nil {
		return nil, err
	}
	refresh, rc, err := s.sign(jwtx.TypeRefresh, id, now)
	if err != nil {
		return nil, err
	}

	err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		JTI:       rc.ID,
		AccountID: id.AccountID,
		Role:      id.Role,
		ExpiresAt: rc.Expiry(),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.ttl(jwtx.TypeAccess).Seconds()),
	}, nil
}

// IssueMFASession mints the intermediate token handed out when primary
// authentication succeeded but MFA is still outstanding.
func (s *TokenIssuer) IssueMFASession(id Identity) (string, error) {
	tok, _, err := s.sign(jwtx.TypeMFASession, id, s.now())
	return tok, err
}

// ParseMFASession verifies an MFA session token. Any other token type, a
// bad signature, expiry or a revoked jti all fail the same way.
func (s *TokenIssuer) ParseMFASession(ctx context.Context, token string) (*jwtx.Claims, error) {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return nil, invalidCredentials(msgInvalidMFASession)
	}
	if err := claims.Expect(jwtx.TypeMFASession); err != nil {
		return nil, invalidCredentials(msgInvalidMFASession)
	}
	revoked, err := s.Revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check mfa session: %w", err)
	}
	if revoked {
		return nil, invalidCredentials(msgInvalidMFASession)
	}
	return claims, nil
}

// RecordMFAFailure counts a wrong code against the session and revokes the
// session once MaxMFAAttempts is reached.
func (s *TokenIssuer) RecordMFAFailure(ctx context.Context, claims *jwtx.Claims) error {
	n, err := s.Revocations.IncrementMFAAttempts(ctx, claims.ID, claims.Expiry())
	if err != nil {
		return err
	}
	if n >= MaxMFAAttempts {
		slogx.FromContext(ctx).Warn("mfa session exhausted",
			slog.String("account_id", claims.Subject),
			slog.Int("attempts", n),
		)
		return s.Revocations.RevokeToken(ctx, claims.ID, claims.Expiry())
	}
	return nil
}

// RevokeClaims denylists an already verified token.
func (s *TokenIssuer) RevokeClaims(ctx context.Context, claims *jwtx.Claims) error {
	return s.Revocations.RevokeToken(ctx, claims.ID, claims.Expiry())
}

// Revoke invalidates any token this service minted. Tokens that no longer
// verify are already unusable and are ignored.
func (s *TokenIssuer) Revoke(ctx context.Context, token string) error {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return nil
	}

	if claims.Type == jwtx.TypeRefresh {
		if _, err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, claims.ID, s.now()); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	return s.RevokeClaims(ctx, claims)
}

// IsTokenRevoked lets the bearer middleware consult the denylist.
func (s *TokenIssuer) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Revocations.IsTokenRevoked(ctx, jti)
}

// VerifyAccess checks an access token for the resource endpoints.
func (s *TokenIssuer) VerifyAccess(token string) (*jwtx.Claims, error) {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := claims.Expect(jwtx.TypeAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair issued in the same transaction. Presenting an already rotated token
// revokes every refresh token of the account.
func (s *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Signer.Verify(refreshToken)
	if err != nil || claims.Expect(jwtx.TypeRefresh) != nil {
		return nil, invalidCredentials(msgInvalidRefreshToken)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, invalidCredentials(msgInvalidRefreshToken)
	}

	now := s.now()
	var pair *domain.TokenPair
	var reused bool

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		row, err := tx.RefreshTokens().GetRefreshTokenByJTI(ctx, claims.ID)
		if errors.Is(err, store.ErrNotFound) {
			return invalidCredentials(msgInvalidRefreshToken)
		}
		if err != nil {
			return err
		}
		if row.AccountID != claims.Subject || row.Role != role {
			return invalidCredentials(msgInvalidRefreshToken)
		}

		ok, err := tx.RefreshTokens().RevokeRefreshToken(ctx, claims.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			reused = true
			return tx.RefreshTokens().RevokeAccountRefreshTokens(ctx, row.AccountID, row.Role, now)
		}

		acct, err := tx.Accounts().GetAccountByID(ctx, role, claims.Subject)
		if errors.Is(err, store.ErrNotFound) {
			return invalidCredentials(msgInvalidRefreshToken)
		}
		if err != nil {
			return err
		}
		if acct.Locked {
			return invalidCredentials(msgAccountLocked)
		}

		pair, err = s.issueTokens(ctx, tx, identityOf(acct))
		return err
	})
	if err != nil {
		return nil, err
	}
	if reused {
		l.Warn("refresh token reuse detected, revoking account sessions",
			slog.String("account_id", claims.Subject),
			slog.String("role", claims.Role),
		)
		return nil, invalidCredentials(msgInvalidRefreshToken)
	}
	return pair, nil
}
