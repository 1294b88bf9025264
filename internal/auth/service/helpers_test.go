package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/provider"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/idx"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

const testIssuer = "skygate-test"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRecaptcha struct {
	valid bool
	calls int
}

func (f *fakeRecaptcha) Verify(_ context.Context, token string) (bool, error) {
	f.calls++
	return f.valid && token != "", nil
}

type fakeIdentity struct {
	ident provider.Identity
	err   error
	calls int
}

func (f *fakeIdentity) Identify(context.Context, string) (provider.Identity, error) {
	f.calls++
	return f.ident, f.err
}

type spyMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (s *spyMailer) Send(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return nil
}

func (s *spyMailer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// brokenRevocations fails every call, like an unreachable redis.
type brokenRevocations struct{}

var errRevocationsDown = errors.New("revocations down")

func (brokenRevocations) RevokeToken(context.Context, string, time.Time) error {
	return errRevocationsDown
}

func (brokenRevocations) IsTokenRevoked(context.Context, string) (bool, error) {
	return false, errRevocationsDown
}

func (brokenRevocations) IncrementMFAAttempts(context.Context, string, time.Time) (int, error) {
	return 0, errRevocationsDown
}

func (brokenRevocations) DeleteExpiredRevocations(context.Context, time.Time) error {
	return errRevocationsDown
}

type harness struct {
	store     *sqlite.Store
	clock     *clock
	keys      *jwtx.KeyManager
	tokens    *TokenIssuer
	totp      *TOTP
	mfa       *MFAManager
	checker   *CredentialChecker
	recaptcha *fakeRecaptcha
	google    *fakeIdentity
	facebook  *fakeIdentity
	login     *LoginOrchestrator
	mailer    *spyMailer
	reset     *PasswordResetManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)

	sealer, err := cryptox.NewSealer([]byte("test master key"))
	require.NoError(t, err)

	// Signed tokens are checked against wall time, so the clock starts now.
	clk := &clock{t: time.Now().Truncate(time.Second)}

	h := &harness{
		store:     st,
		clock:     clk,
		keys:      km,
		recaptcha: &fakeRecaptcha{valid: true},
		google:    &fakeIdentity{},
		facebook:  &fakeIdentity{},
		mailer:    &spyMailer{},
	}
	h.tokens = &TokenIssuer{
		Signer:      km,
		Store:       st,
		Revocations: st.Revocations(),
		Issuer:      testIssuer,
		Now:         clk.Now,
	}
	h.totp = &TOTP{Issuer: "AirlineTicketing", Now: clk.Now}
	h.mfa = &MFAManager{
		Store: st,
		TOTP:  h.totp,
		Vault: &BackupCodeVault{Sealer: sealer},
		Now:   clk.Now,
	}
	h.checker = &CredentialChecker{
		Store:                    st,
		MaxFailedLogins:          3,
		RequireEmailVerification: true,
		Now:                      clk.Now,
	}
	h.login = &LoginOrchestrator{
		Selector: NewStrategySelector(
			NewEmailStrategy(h.recaptcha, h.checker, h.tokens),
			NewGoogleStrategy(h.recaptcha, h.google, st, h.tokens, clk.Now),
			NewFacebookStrategy(h.recaptcha, h.facebook, st, h.tokens, clk.Now),
		),
		MFA:    h.mfa,
		Tokens: h.tokens,
		Store:  st,
		Now:    clk.Now,
	}
	h.reset = &PasswordResetManager{
		Store:     st,
		Mailer:    h.mailer,
		PublicURL: "http://localhost:3000",
		Now:       clk.Now,
	}
	return h
}

// createAccount stores a verified email account with password.
func (h *harness) createAccount(t *testing.T, role domain.Role, email, password string) domain.Account {
	t.Helper()

	acct, err := createEmailAccount(context.Background(), h.store.Accounts(), role,
		Registration{Email: email, Password: password, Name: "Test"}, true, h.clock.Now())
	require.NoError(t, err)
	return acct
}

func (h *harness) createSocialAccount(t *testing.T, p domain.AuthProvider, providerID, email string) domain.Account {
	t.Helper()

	now := h.clock.Now()
	acct := domain.Account{
		ID:            idx.New().String(),
		Role:          domain.RoleUser,
		Email:         email,
		AuthProvider:  p,
		ProviderID:    &providerID,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, h.store.Accounts().CreateAccount(context.Background(), acct))
	return acct
}

// enableMFA runs setup and verification and returns the secret and the
// backup codes.
func (h *harness) enableMFA(t *testing.T, acct domain.Account) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := h.mfa.SetupMFA(ctx, acct.ID, acct.Role, acct.Email)
	require.NoError(t, err)

	ok, err := h.mfa.VerifyAndEnableMFA(ctx, acct.ID, acct.Role, h.code(t, setup.Secret, 0))
	require.NoError(t, err)
	require.True(t, ok)
	return setup.Secret, setup.BackupCodes
}

// code returns the TOTP code for the clock's time shifted by steps periods.
func (h *harness) code(t *testing.T, secret string, steps int) string {
	t.Helper()

	at := h.clock.Now().Add(time.Duration(steps) * TOTPPeriod * time.Second)
	c, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    TOTPPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return c
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "not an AuthError: %v", err)
	require.Equal(t, kind, got, "error: %v", err)
}

var _ store.Revocations = brokenRevocations{}
